package run

import (
	"os"

	"github.com/lunixbochs/userprog/go/cmd"
)

func Main(args []string) {
	os.Exit(cmd.NewUserprogCmd().Run(args))
}

func init() { cmd.Register("run", "boot the machine and run one program", Main) }

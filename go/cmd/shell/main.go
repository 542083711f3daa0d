package shell

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/shibukawa/configdir"

	"github.com/lunixbochs/userprog/go/cmd"
	"github.com/lunixbochs/userprog/go/models"
)

func historyPath() string {
	configDirs := configdir.New("userprog", "shell")
	cacheDir := configDirs.QueryCacheFolder()
	if err := cacheDir.MkdirAll(); err == nil {
		return filepath.Join(cacheDir.Path, "history")
	}
	return ""
}

func Main(args []string) {
	c := cmd.NewUserprogCmd()
	c.NoArgs = true

	var rl *readline.Instance
	var rlErr error
	c.PrepConfig = func(config *models.Config) {
		rl, rlErr = readline.NewEx(&readline.Config{
			Prompt:          "pintos> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			HistoryFile:     historyPath(),
		})
		if rlErr == nil {
			config.Output = rl.Stdout()
		}
		// readline owns the terminal, so programs see an empty stdin
		config.Input = strings.NewReader("")
		config.Color = config.Color || isatty.IsTerminal(os.Stdout.Fd())
	}
	c.RunMachine = func(args []string) (int, error) {
		if rlErr != nil {
			return 1, rlErr
		}
		defer rl.Close()
		sh := NewShell(c.Machine, rl.Stdout(), c.Config.Color)
		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				continue
			} else if err == io.EOF {
				return 0, nil
			} else if err != nil {
				return 1, err
			}
			quit, err := sh.Exec(line)
			if err != nil {
				c.PrintError(err)
			}
			if quit {
				return 0, nil
			}
		}
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("shell", "interactive prompt on one machine", Main) }

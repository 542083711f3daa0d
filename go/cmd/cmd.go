package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	userprog "github.com/lunixbochs/userprog/go"
	"github.com/lunixbochs/userprog/go/models"
)

type strslice []string

func (s *strslice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *strslice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type UserprogCmd struct {
	Config *models.Config

	SetupFlags func() error
	// PrepConfig adjusts the final config before the machine boots.
	PrepConfig func(config *models.Config)
	// RunMachine defaults to running the command line given after the flags.
	RunMachine func(args []string) (int, error)

	NoArgs bool

	Machine *userprog.Machine
	Flags   *flag.FlagSet
}

func NewUserprogCmd() *UserprogCmd {
	fs := flag.NewFlagSet("cli", flag.ExitOnError)
	return &UserprogCmd{Flags: fs}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (c *UserprogCmd) PrintError(err error) {
	// print an error, and a stacktrace if available
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	if err, ok := err.(stackTracer); ok {
		// parse full path and method name for each stack frame
		var frames [][]string
		for _, f := range err.StackTrace() {
			fullpath := ""
			fileline := fmt.Sprintf("%s:%d", f, f)
			method := fmt.Sprintf("%n", f)

			frame := fmt.Sprintf("%+s", f)
			tmp := strings.SplitN(frame, "\n", 3)
			if len(tmp) == 2 {
				pathsplit := strings.Split(tmp[0], "/")
				method = pathsplit[len(pathsplit)-1]
				fullpath = strings.TrimSpace(tmp[1])
			}
			frames = append(frames, []string{fullpath, fileline, method})
			if method == "main.main" {
				break
			}
		}
		widths := make([]int, 3)
		for _, f := range frames {
			for i, s := range f {
				if len(s) > widths[i] {
					widths[i] = len(s)
				}
			}
		}
		for _, f := range frames {
			for i := 0; i < 2; i++ {
				if widths[i] > 0 {
					pad := strings.Repeat(" ", widths[i]-len(f[i]))
					fmt.Fprintf(os.Stderr, "%s%s | ", f[i], pad)
				}
			}
			fmt.Fprintf(os.Stderr, "%s()\n", f[2])
		}
	}
}

// JoinArgs rebuilds a command line, quoting words the loader would split.
func JoinArgs(args []string) string {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n'\"\\$`") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
		}
		out[i] = arg
	}
	return strings.Join(out, " ")
}

// BuildConfig layers defaults, the config file and explicitly set flags.
func (c *UserprogCmd) BuildConfig(path string, apply func(config *models.Config)) (*models.Config, error) {
	if path == "" {
		path = models.FindConfig()
	}
	config := models.DefaultConfig()
	if path != "" {
		var err error
		if config, err = models.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	apply(config)
	return config.Init(), nil
}

func (c *UserprogCmd) Run(argv []string) int {
	fs := c.Flags
	strace := fs.Bool("strace", false, "trace syscalls")
	strsize := fs.Int("strsize", 30, "limited -strace'd strings to length (0 disables)")
	tracefile := fs.String("to", "", "binary syscall trace output file")
	tnames := []string{"strace", "strsize", "to"}

	configPath := fs.String("config", "", "config file (default: first "+models.ConfigName+" in the user config dirs)")
	fsRoot := fs.String("fs", "", "serve files from this host directory instead of an in-memory filesystem")
	maxStr := fs.Int("maxstr", 4096, "longest user string the kernel accepts")
	stack := fs.Int("stack", 1, "stack pages per process")
	heap := fs.Int("heap", 4, "heap pages per process")
	verbose := fs.Bool("v", false, "verbose output")
	color := fs.Bool("color", false, "colorize shell output")
	outfile := fs.String("o", "", "redirect kernel log to file (default stderr)")
	var puts, gets strslice
	fs.Var(&puts, "p", "copy a host file onto the machine's filesystem before running (host[:name])")
	fs.Var(&gets, "g", "copy a file off the machine's filesystem after running (name[:host])")

	fs.Usage = func() {
		usage := "Usage: %s [options]"
		if !c.NoArgs {
			usage += " <program> [args...]"
		}
		usage += "\n\nOptions:\n"
		fmt.Fprintf(os.Stderr, usage, argv[0])
		var flags, tflags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) {
			for _, name := range tnames {
				if name == f.Name {
					tflags = append(tflags, f)
					return
				}
			}
			flags = append(flags, f)
		})
		models.PrintFlags(os.Stderr, flags)
		fmt.Fprintf(os.Stderr, "\nTrace Options:\n")
		models.PrintFlags(os.Stderr, tflags)
		fmt.Fprintf(os.Stderr, "\nExample:\n  %s -strace -p notes.txt:notes cat notes\n", argv[0])
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			panic(err)
		}
	}
	fs.Parse(argv[1:])
	args := fs.Args()
	if !c.NoArgs && len(args) < 1 {
		fs.Usage()
		return 1
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	config, err := c.BuildConfig(*configPath, func(config *models.Config) {
		if set["strace"] {
			config.TraceSys = *strace
		}
		if set["strsize"] {
			config.Strsize = *strsize
		}
		if set["to"] {
			config.TraceFile = *tracefile
		}
		if set["fs"] {
			config.FsRoot = *fsRoot
		}
		if set["maxstr"] {
			config.MaxStr = *maxStr
		}
		if set["stack"] {
			config.StackPages = *stack
		}
		if set["heap"] {
			config.HeapPages = *heap
		}
		if set["v"] {
			config.Verbose = *verbose
		}
		if set["color"] {
			config.Color = *color
		}
	})
	if err != nil {
		c.PrintError(err)
		return 1
	}
	if c.PrepConfig != nil {
		c.PrepConfig(config)
	}
	c.Config = config

	m, err := userprog.NewMachine(config)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	c.Machine = m
	defer m.Close()
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			c.PrintError(errors.Wrap(err, "failed to open log file"))
			return 1
		}
		defer out.Close()
		m.Log.Out = out
	}
	for _, spec := range puts {
		host, name := splitPair(spec)
		data, err := os.ReadFile(host)
		if err == nil {
			err = m.Put(name, data)
		}
		if err != nil {
			c.PrintError(errors.Wrapf(err, "put %s", spec))
			return 1
		}
	}

	var status int
	if c.RunMachine != nil {
		status, err = c.RunMachine(args)
	} else {
		status, err = m.Run(JoinArgs(args))
	}
	if err == userprog.ErrHalted {
		err, status = nil, 0
	}
	if err != nil {
		c.PrintError(err)
		return 1
	}
	for _, spec := range gets {
		name, host := splitPair(spec)
		data, err := m.Get(name)
		if err == nil {
			err = os.WriteFile(host, data, 0644)
		}
		if err != nil {
			c.PrintError(errors.Wrapf(err, "get %s", spec))
			return 1
		}
	}
	return status
}

// splitPair splits "a:b", defaulting b to the base name of a.
func splitPair(spec string) (string, string) {
	if i := strings.LastIndex(spec, ":"); i > 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, filepath.Base(spec)
}

// Package shell is an interactive prompt that runs programs on one machine
// until it halts.
package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	userprog "github.com/lunixbochs/userprog/go"
	"github.com/lunixbochs/userprog/go/models"
)

const help = `Builtins:
  help          this text
  ls            list the machine's files
  progs         list installed programs
  exit          leave the shell (the machine keeps its files until then)
Anything else is run as a program command line, e.g. "echo hi there".
`

type Shell struct {
	m     *userprog.Machine
	out   io.Writer
	color bool
}

func NewShell(m *userprog.Machine, out io.Writer, color bool) *Shell {
	return &Shell{m: m, out: out, color: color}
}

// Exec handles one input line and reports whether the shell should stop.
func (s *Shell) Exec(line string) (bool, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "help", "?":
		fmt.Fprint(s.out, help)
	case "exit", "quit":
		return true, nil
	case "ls":
		ents, err := s.m.Kernel.Files()
		if err != nil {
			return false, err
		}
		var total uint64
		for _, ent := range ents {
			fmt.Fprintf(s.out, "%-14s %8s\n", ent.Name, humanize.Bytes(uint64(ent.Size)))
			total += uint64(ent.Size)
		}
		fmt.Fprintf(s.out, "%d files, %s\n", len(ents), humanize.Bytes(total))
	case "progs":
		fmt.Fprintln(s.out, strings.Join(s.m.Loader.Names(), " "))
	default:
		pid, err := s.m.Spawn(line)
		if err == userprog.ErrHalted {
			return true, nil
		} else if err != nil {
			fmt.Fprintf(s.out, "%s: %v\n", fields[0], err)
			return false, nil
		}
		status, err := s.m.Wait(pid)
		if err == userprog.ErrHalted {
			return true, nil
		} else if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, models.ExitLine(fields[0], pid, status, s.color))
	}
	return false, nil
}

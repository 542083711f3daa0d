package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"
)

var (
	chOk    = ansi.ColorCode("green+b:default")
	chFail  = ansi.ColorCode("red+b:default")
	chFault = ansi.ColorCode("red+bu:default")
	chDim   = ansi.ColorCode("default+h:default")
)

func colorPad(s, color string, pad int) string {
	length := len(s)
	s = color + s + ansi.Reset
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

// ExitLine renders the shell's summary of a finished process.
func ExitLine(name string, pid, status int, color bool) string {
	code := fmt.Sprintf("%d", status)
	if !color {
		return fmt.Sprintf("[%d] %s exited %s", pid, name, code)
	}
	col := chOk
	switch {
	case status == FaultStatus:
		col = chFault
	case status != 0:
		col = chFail
	}
	return fmt.Sprintf("%s %s exited %s", colorPad(fmt.Sprintf("[%d]", pid), chDim, 5), name, colorPad(code, col, 0))
}

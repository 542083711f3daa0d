package models

import "fmt"

// ExitStatus unwinds a process thread after exit().
type ExitStatus int

func (e ExitStatus) Error() string {
	return fmt.Sprintf("exit %d", e)
}

// Fault unwinds a process thread that handed the kernel bad input. It is
// terminal: the process exits with FaultStatus and never resumes.
type Fault struct {
	Addr   uint64
	Reason string
}

const FaultStatus = -1

func (f *Fault) Error() string {
	if f.Addr != 0 {
		return fmt.Sprintf("%s at %#x", f.Reason, f.Addr)
	}
	return f.Reason
}

// Halted unwinds every process thread once the machine powers off.
type Halted struct{}

func (Halted) Error() string { return "machine halted" }

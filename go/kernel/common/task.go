package common

import (
	"github.com/lunixbochs/argjoy"
	"github.com/sirupsen/logrus"
)

// Task is the kernel's view of one process while it is inside a syscall.
// Each process owns exactly one Task, so argument conversion never crosses
// address spaces.
type Task struct {
	Pid    int
	Name   string
	Mem    AddressSpace
	Valid  *Validator
	Argjoy argjoy.Argjoy
	Log    *logrus.Entry
}

func NewTask(pid int, name string, as AddressSpace, maxStr int, log *logrus.Entry) *Task {
	t := &Task{
		Pid:   pid,
		Name:  name,
		Mem:   as,
		Valid: NewValidator(as, maxStr),
		Log:   log.WithField("pid", pid),
	}
	t.Argjoy.Register(t.argCodec)
	t.Argjoy.Register(argjoy.IntToInt)
	return t
}

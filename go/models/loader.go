package models

import (
	"github.com/lunixbochs/userprog/go/models/cpu"
)

// Entry runs a loaded program in user mode. Its return value is treated as
// the argument to exit when the program never calls exit itself.
type Entry func(img *Image, t Trapper) int

// Image is a program loaded into a fresh address space, ready to run.
type Image struct {
	Name string
	Argv []string
	Mem  *cpu.Mem
	Esp  uint32
	// Heap:HeapEnd is the writable data segment left for the program's allocator.
	Heap    uint32
	HeapEnd uint32
	Entry   Entry
}

// Loader builds a process image for a command line.
type Loader interface {
	Load(cmdline string, mem *cpu.Mem) (*Image, error)
}

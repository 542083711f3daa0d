// Package user is the user-mode runtime linked into every built-in program:
// stack and heap handling plus the Pintos syscall stubs.
package user

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

const wordSize = 4

// Env is the user-mode state of one running program. All memory access goes
// through page protections; a bad access raises a page fault.
type Env struct {
	Mem  *cpu.Mem
	Trap models.Trapper
	Esp  uint32
	Args []string

	brk, heapEnd uint32
}

// Main is the signature of a program's main function.
type Main func(e *Env) int

// Program turns main into a loader entry point. Returning from main exits
// with its result, the way crt0 does.
func Program(main Main) models.Entry {
	return func(img *models.Image, t models.Trapper) int {
		e := NewEnv(img, t)
		e.Exit(main(e))
		return 0
	}
}

// NewEnv picks up argc and argv from the initial stack.
func NewEnv(img *models.Image, t models.Trapper) *Env {
	e := &Env{
		Mem:     img.Mem,
		Trap:    t,
		Esp:     img.Esp,
		brk:     img.Heap,
		heapEnd: img.HeapEnd,
	}
	argc := e.Word(e.Esp + wordSize)
	argv := e.Word(e.Esp + 2*wordSize)
	for i := uint32(0); i < argc; i++ {
		e.Args = append(e.Args, e.LoadStr(e.Word(argv+i*wordSize)))
	}
	return e
}

func (e *Env) fault(addr uint32, write bool, err error) {
	e.Trap.PageFault(uint64(addr), write)
	// the kernel never returns from a page fault
	panic(errors.Wrap(err, "page fault returned"))
}

func (e *Env) Load(addr, size uint32) []byte {
	p, err := e.Mem.ReadProt(uint64(addr), uint64(size), cpu.PROT_READ)
	if err != nil {
		e.fault(addr, false, err)
	}
	return p
}

func (e *Env) Store(addr uint32, p []byte) {
	if err := e.Mem.WriteProt(uint64(addr), p, cpu.PROT_WRITE); err != nil {
		e.fault(addr, true, err)
	}
}

func (e *Env) Word(addr uint32) uint32 {
	n, err := e.Mem.ReadUint(uint64(addr), wordSize, cpu.PROT_READ)
	if err != nil {
		e.fault(addr, false, err)
	}
	return uint32(n)
}

func (e *Env) SetWord(addr, n uint32) {
	if err := e.Mem.WriteUint(uint64(addr), wordSize, cpu.PROT_WRITE, uint64(n)); err != nil {
		e.fault(addr, true, err)
	}
}

// LoadStr reads a NUL-terminated string.
func (e *Env) LoadStr(addr uint32) string {
	var out []byte
	for {
		b := e.Load(addr, 1)[0]
		if b == 0 {
			return string(out)
		}
		out = append(out, b)
		addr++
	}
}

func (e *Env) Push(n uint32) uint32 {
	e.Esp -= wordSize
	e.SetWord(e.Esp, n)
	return e.Esp
}

func (e *Env) Pop() uint32 {
	n := e.Word(e.Esp)
	e.Esp += wordSize
	return n
}

// Alloc returns size bytes of heap, word aligned. Running out of heap is a
// write past the end of the data segment.
func (e *Env) Alloc(size uint32) uint32 {
	size = (size + wordSize - 1) &^ (wordSize - 1)
	if size > e.heapEnd-e.brk {
		e.fault(e.heapEnd, true, errors.New("out of heap"))
	}
	addr := e.brk
	e.brk += size
	return addr
}

// Mark and Release bracket temporary heap allocations.
func (e *Env) Mark() uint32        { return e.brk }
func (e *Env) Release(mark uint32) { e.brk = mark }

func (e *Env) Bytes(p []byte) uint32 {
	addr := e.Alloc(uint32(len(p)))
	e.Store(addr, p)
	return addr
}

func (e *Env) Str(s string) uint32 {
	return e.Bytes(append([]byte(s), 0))
}

package progs

import (
	"github.com/lunixbochs/userprog/go/models/cpu"
	"github.com/lunixbochs/userprog/go/syscalls"
	"github.com/lunixbochs/userprog/go/user"
)

// Programs that misuse the syscall interface. Each should be killed with
// exit(-1) before reaching its failure message.
func init() {
	bad := func(name string, fn func(e *user.Env)) {
		register(name, func(e *user.Env) int {
			fn(e)
			e.Printf("FAIL: %s survived\n", name)
			return 0
		})
	}
	bad("bad-read", func(e *user.Env) {
		e.Printf("%d\n", e.Word(0))
	})
	bad("bad-write", func(e *user.Env) {
		e.SetWord(0, 42)
	})
	bad("bad-kernel-read", func(e *user.Env) {
		e.Load(cpu.PhysBase, 1)
	})
	bad("bad-code-write", func(e *user.Env) {
		e.Store(0x08048000, []byte{0xcc})
	})
	bad("sc-bad-sp", func(e *user.Env) {
		e.RawTrap(0x20101234)
	})
	bad("sc-bad-arg", func(e *user.Env) {
		esp := uint32(cpu.PhysBase - 4)
		e.SetWord(esp, syscalls.SYS_EXIT)
		e.RawTrap(esp)
	})
	bad("sc-bad-vec", func(e *user.Env) {
		e.RawTrapVec(e.Push(syscalls.SYS_EXIT), 0x80)
	})
	bad("bad-syscall", func(e *user.Env) {
		e.Syscall(99)
	})
	bad("reserved-syscall", func(e *user.Env) {
		e.Syscall(syscalls.SYS_MMAP, 0, 0)
	})
	bad("write-bad-ptr", func(e *user.Env) {
		e.Write(1, 0x10123420, 123)
	})
	bad("write-past-top", func(e *user.Env) {
		e.Write(1, cpu.PhysBase-4, 5)
	})
	bad("read-bad-ptr", func(e *user.Env) {
		e.Read(0, 0xc0100000, 123)
	})
	bad("read-code", func(e *user.Env) {
		// the kernel may not write into a read-only page on our behalf
		e.Read(0, 0x08048000, 1)
	})
	bad("open-null", func(e *user.Env) {
		e.Syscall(syscalls.SYS_OPEN, 0)
	})
	bad("open-bad-ptr", func(e *user.Env) {
		e.Syscall(syscalls.SYS_OPEN, 0x20101234)
	})
	bad("exec-bad-ptr", func(e *user.Env) {
		e.Syscall(syscalls.SYS_EXEC, 0x20101234)
	})
	bad("create-null", func(e *user.Env) {
		e.Syscall(syscalls.SYS_CREATE, 0, 0)
	})
	bad("stack-overflow", func(e *user.Env) {
		for {
			e.Push(0)
		}
	})
	bad("heap-overflow", func(e *user.Env) {
		for {
			e.Alloc(1024)
		}
	})
	register("sc-boundary", scBoundary)
	register("write-boundary", writeBoundary)
}

// scBoundary places a syscall frame so the number and its argument sit on
// different heap pages.
func scBoundary(e *user.Env) int {
	base := e.Alloc(2 * cpu.PageSize)
	boundary := (base + cpu.PageSize) &^ (cpu.PageSize - 1)
	esp := boundary - 4
	e.SetWord(esp, syscalls.SYS_EXIT)
	e.SetWord(boundary, 42)
	e.RawTrap(esp)
	return 0
}

// writeBoundary writes a buffer that straddles two heap pages.
func writeBoundary(e *user.Env) int {
	msg := []byte("sample text straddling a page boundary\n")
	base := e.Alloc(2 * cpu.PageSize)
	addr := (base+cpu.PageSize)&^(cpu.PageSize-1) - uint32(len(msg)/2)
	e.Store(addr, msg)
	if n := e.Write(1, addr, uint32(len(msg))); n != len(msg) {
		return 1
	}
	return 0
}

package user

import (
	"fmt"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/syscalls"
)

// RawTrap raises the syscall interrupt with an arbitrary stack pointer.
func (e *Env) RawTrap(esp uint32) uint32 {
	return e.RawTrapVec(esp, models.SyscallVec)
}

func (e *Env) RawTrapVec(esp uint32, vec int) uint32 {
	f := &models.TrapFrame{Esp: esp, Vec: vec}
	e.Trap.Trap(f)
	return f.Eax
}

// Syscall pushes args right to left, then the number, and traps.
func (e *Env) Syscall(num int, args ...uint32) uint32 {
	for i := len(args) - 1; i >= 0; i-- {
		e.Push(args[i])
	}
	esp := e.Push(uint32(num))
	ret := e.RawTrap(esp)
	e.Esp += uint32(wordSize * (len(args) + 1))
	return ret
}

func (e *Env) withStr(s string, fn func(addr uint32) uint32) uint32 {
	mark := e.Mark()
	defer e.Release(mark)
	return fn(e.Str(s))
}

func (e *Env) Halt() {
	e.Syscall(syscalls.SYS_HALT)
	panic("halt returned")
}

func (e *Env) Exit(status int) {
	e.Syscall(syscalls.SYS_EXIT, uint32(status))
	panic("exit returned")
}

func (e *Env) Exec(cmdline string) int {
	return int(int32(e.withStr(cmdline, func(addr uint32) uint32 {
		return e.Syscall(syscalls.SYS_EXEC, addr)
	})))
}

func (e *Env) Wait(pid int) int {
	return int(int32(e.Syscall(syscalls.SYS_WAIT, uint32(pid))))
}

func (e *Env) Create(name string, size uint32) bool {
	return e.withStr(name, func(addr uint32) uint32 {
		return e.Syscall(syscalls.SYS_CREATE, addr, size)
	}) != 0
}

func (e *Env) Remove(name string) bool {
	return e.withStr(name, func(addr uint32) uint32 {
		return e.Syscall(syscalls.SYS_REMOVE, addr)
	}) != 0
}

func (e *Env) Open(name string) int {
	return int(int32(e.withStr(name, func(addr uint32) uint32 {
		return e.Syscall(syscalls.SYS_OPEN, addr)
	})))
}

func (e *Env) Filesize(fd int) int {
	return int(int32(e.Syscall(syscalls.SYS_FILESIZE, uint32(fd))))
}

func (e *Env) Read(fd int, buf, size uint32) int {
	return int(int32(e.Syscall(syscalls.SYS_READ, uint32(fd), buf, size)))
}

func (e *Env) Write(fd int, buf, size uint32) int {
	return int(int32(e.Syscall(syscalls.SYS_WRITE, uint32(fd), buf, size)))
}

func (e *Env) Seek(fd int, pos uint32) {
	e.Syscall(syscalls.SYS_SEEK, uint32(fd), pos)
}

func (e *Env) Tell(fd int) uint32 {
	return e.Syscall(syscalls.SYS_TELL, uint32(fd))
}

func (e *Env) Close(fd int) {
	e.Syscall(syscalls.SYS_CLOSE, uint32(fd))
}

// WriteBytes copies p into a heap buffer and writes it to fd.
func (e *Env) WriteBytes(fd int, p []byte) int {
	mark := e.Mark()
	defer e.Release(mark)
	return e.Write(fd, e.Bytes(p), uint32(len(p)))
}

// ReadBytes reads up to n bytes from fd into a heap buffer and returns them.
func (e *Env) ReadBytes(fd int, n uint32) ([]byte, int) {
	mark := e.Mark()
	defer e.Release(mark)
	buf := e.Alloc(n)
	ret := e.Read(fd, buf, n)
	if ret <= 0 {
		return nil, ret
	}
	return e.Load(buf, uint32(ret)), ret
}

func (e *Env) Printf(format string, a ...interface{}) int {
	return e.WriteBytes(1, []byte(fmt.Sprintf(format, a...)))
}

package progs

import (
	"strings"

	"github.com/lunixbochs/userprog/go/user"
)

func init() {
	register("read-stdout", func(e *user.Env) int {
		_, n := e.ReadBytes(1, 4)
		e.Printf("read(1) = %d\n", n)
		return 0
	})
	register("write-stdin", func(e *user.Env) int {
		e.Printf("write(0) = %d\n", e.WriteBytes(0, []byte("x")))
		return 0
	})
	register("write-many", func(e *user.Env) int {
		msg := strings.Repeat("0123456789abcdef", 64)
		n := e.WriteBytes(1, []byte(msg+"\n"))
		return n - len(msg) - 1
	})
	register("create-long", func(e *user.Env) int {
		e.Printf("create(long) = %v\n", e.Create(strings.Repeat("x", 15), 0))
		return 0
	})
	register("create-empty", func(e *user.Env) int {
		e.Printf("create(\"\") = %v\n", e.Create("", 0))
		return 0
	})
	register("fd-bad", func(e *user.Env) int {
		e.Printf("filesize(99) = %d\n", e.Filesize(99))
		e.Printf("tell(-1) = %d\n", int32(e.Tell(-1)))
		e.Seek(99, 4)
		e.Close(99)
		e.Close(1)
		e.Printf("write(99) = %d\n", e.WriteBytes(99, []byte("x")))
		return 0
	})
	// fileio NAME TEXT: create NAME, write TEXT, read it back
	register("fileio", func(e *user.Env) int {
		if len(e.Args) != 3 {
			return 2
		}
		name, text := e.Args[1], e.Args[2]
		if !e.Create(name, uint32(len(text))) {
			e.Printf("create failed\n")
			return 1
		}
		fd := e.Open(name)
		if fd < 2 {
			e.Printf("open failed\n")
			return 1
		}
		if n := e.WriteBytes(fd, []byte(text+"overflow")); n != len(text) {
			e.Printf("write = %d\n", n)
			return 1
		}
		if e.Tell(fd) != uint32(len(text)) {
			return 1
		}
		e.Seek(fd, 0)
		p, n := e.ReadBytes(fd, uint32(len(text)+10))
		if n != len(text) || string(p) != text {
			e.Printf("read back %q\n", p)
			return 1
		}
		if e.Filesize(fd) != len(text) {
			return 1
		}
		e.Close(fd)
		return 0
	})
	// open-twice NAME: two opens of one file get distinct descriptors
	register("open-twice", func(e *user.Env) int {
		if len(e.Args) != 2 {
			e.Printf("usage: open-twice NAME\n")
			return 2
		}
		a, b := e.Open(e.Args[1]), e.Open(e.Args[1])
		e.Printf("open = %d, %d\n", a, b)
		if a < 2 || b < 2 || a == b {
			return 1
		}
		return 0
	})
	// close-twice NAME
	register("close-twice", func(e *user.Env) int {
		if len(e.Args) != 2 {
			e.Printf("usage: close-twice NAME\n")
			return 2
		}
		fd := e.Open(e.Args[1])
		e.Close(fd)
		e.Close(fd)
		e.Printf("filesize after close = %d\n", e.Filesize(fd))
		return 0
	})
}

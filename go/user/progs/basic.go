package progs

import (
	"strconv"
	"strings"

	"github.com/lunixbochs/userprog/go/user"
)

const chunk = 512

func init() {
	register("echo", echo)
	register("cat", cat)
	register("cp", cp)
	register("touch", touch)
	register("rm", rm)
	register("halt", halt)
	register("exit", exit)
	register("true", func(e *user.Env) int { return 0 })
	register("false", func(e *user.Env) int { return 1 })
}

func echo(e *user.Env) int {
	e.Printf("%s\n", strings.Join(e.Args[1:], " "))
	return 0
}

func cat(e *user.Env) int {
	if len(e.Args) == 1 {
		return copyFd(e, 0, 1)
	}
	status := 0
	for _, name := range e.Args[1:] {
		fd := e.Open(name)
		if fd < 0 {
			e.Printf("cat: %s: open failed\n", name)
			status = 1
			continue
		}
		copyFd(e, fd, 1)
		e.Close(fd)
	}
	return status
}

func copyFd(e *user.Env, src, dst int) int {
	for {
		p, n := e.ReadBytes(src, chunk)
		if n < 0 {
			return 1
		}
		if n == 0 {
			return 0
		}
		if e.WriteBytes(dst, p) != n {
			return 1
		}
	}
}

func cp(e *user.Env) int {
	if len(e.Args) != 3 {
		e.Printf("usage: cp SRC DST\n")
		return 2
	}
	src := e.Open(e.Args[1])
	if src < 0 {
		e.Printf("cp: %s: open failed\n", e.Args[1])
		return 1
	}
	if !e.Create(e.Args[2], uint32(e.Filesize(src))) {
		e.Printf("cp: %s: create failed\n", e.Args[2])
		return 1
	}
	dst := e.Open(e.Args[2])
	if dst < 0 {
		return 1
	}
	status := copyFd(e, src, dst)
	e.Close(src)
	e.Close(dst)
	return status
}

// touch NAME [SIZE]
func touch(e *user.Env) int {
	if len(e.Args) < 2 {
		e.Printf("usage: touch NAME [SIZE]\n")
		return 2
	}
	size := 0
	if len(e.Args) > 2 {
		size, _ = strconv.Atoi(e.Args[2])
	}
	if !e.Create(e.Args[1], uint32(size)) {
		return 1
	}
	return 0
}

func rm(e *user.Env) int {
	status := 0
	for _, name := range e.Args[1:] {
		if !e.Remove(name) {
			e.Printf("rm: %s: remove failed\n", name)
			status = 1
		}
	}
	return status
}

func halt(e *user.Env) int {
	e.Halt()
	return 0
}

func exit(e *user.Env) int {
	status := 0
	if len(e.Args) > 1 {
		status, _ = strconv.Atoi(e.Args[1])
	}
	e.Exit(status)
	return 0
}

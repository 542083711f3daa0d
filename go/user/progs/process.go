package progs

import (
	"strconv"

	"github.com/lunixbochs/userprog/go/user"
)

const maxChildren = 64

func init() {
	register("child-simple", func(e *user.Env) int {
		e.Printf("run\n")
		return 81
	})
	register("child-args", func(e *user.Env) int {
		for i, arg := range e.Args {
			e.Printf("argv[%d] = '%s'\n", i, arg)
		}
		return len(e.Args)
	})
	register("child-bad", func(e *user.Env) int {
		e.RawTrap(0x20101234)
		e.Printf("FAIL: survived bad stack pointer\n")
		return 0
	})
	register("wait-simple", func(e *user.Env) int {
		e.Printf("wait(exec()) = %d\n", e.Wait(e.Exec("child-simple")))
		return 0
	})
	register("wait-twice", func(e *user.Env) int {
		pid := e.Exec("child-simple")
		e.Printf("wait(exec()) = %d\n", e.Wait(pid))
		e.Printf("wait(exec()) = %d\n", e.Wait(pid))
		return 0
	})
	register("wait-killed", func(e *user.Env) int {
		e.Printf("wait(exec()) = %d\n", e.Wait(e.Exec("child-bad")))
		return 0
	})
	register("wait-bad-pid", func(e *user.Env) int {
		e.Printf("wait(0x0c020301) = %d\n", e.Wait(0x0c020301))
		return 0
	})
	register("exec-arg", func(e *user.Env) int {
		return e.Wait(e.Exec("child-args childarg"))
	})
	register("exec-missing", func(e *user.Env) int {
		e.Printf("exec(\"no-such-file\") = %d\n", e.Exec("no-such-file"))
		return 0
	})
	// exec-multiple N CMD...: start N children, then reap them in order
	register("exec-multiple", func(e *user.Env) int {
		if len(e.Args) < 3 {
			e.Printf("usage: exec-multiple N CMD...\n")
			return 2
		}
		n, err := strconv.Atoi(e.Args[1])
		if err != nil || n < 0 || n > maxChildren {
			e.Printf("exec-multiple: bad count %q\n", e.Args[1])
			return 2
		}
		cmd := ""
		for i, arg := range e.Args[2:] {
			if i > 0 {
				cmd += " "
			}
			cmd += arg
		}
		pids := make([]int, n)
		for i := range pids {
			pids[i] = e.Exec(cmd)
		}
		sum := 0
		for _, pid := range pids {
			sum += e.Wait(pid)
		}
		return sum
	})
	// orphan: start a child and exit without waiting for it
	register("orphan", func(e *user.Env) int {
		e.Exec("child-simple")
		return 0
	})
}

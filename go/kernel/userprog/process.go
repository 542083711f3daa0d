package userprog

import (
	"encoding/binary"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/userprog/go/filesys"
	"github.com/lunixbochs/userprog/go/kernel/common"
	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

func (k *Kernel) proc(t *common.Task) *process {
	p := k.procs.get(t.Pid)
	if p == nil {
		panic(fmt.Sprintf("pid %d has no process entry", t.Pid))
	}
	return p
}

// block waits for a one-shot signal. Halting the machine unwinds the waiter.
func (k *Kernel) block(p *process, load bool) {
	sem := p.exitSem
	if load {
		sem = p.loadSem
	}
	if err := sem.Acquire(k.ctx, 1); err != nil || k.Halted() {
		panic(models.Halted{})
	}
}

func (k *Kernel) Halt(t *common.Task) {
	k.Shutdown()
	panic(models.Halted{})
}

func (k *Kernel) Exit(t *common.Task, status int32) {
	panic(models.ExitStatus(status))
}

func (k *Kernel) Exec(t *common.Task, cmdline string) int32 {
	child := k.spawn(t.Pid, cmdline)
	k.block(child, true)
	if child.loadErr != nil {
		t.Log.WithError(child.loadErr).Debug("exec failed")
		return -1
	}
	return int32(child.pid)
}

func (k *Kernel) Wait(t *common.Task, pid common.Pid) int32 {
	c := k.procs.claim(t.Pid, int(pid))
	if c == nil {
		return -1
	}
	k.block(c, false)
	return int32(k.procs.reap(c))
}

func (k *Kernel) spawn(parent int, cmdline string) *process {
	p := k.procs.add(parent, cmdline)
	k.threads.Add(1)
	go k.thread(p)
	return p
}

// Spawn starts cmdline as a child of the kernel and returns its pid once it
// has loaded.
func (k *Kernel) Spawn(cmdline string) (int, error) {
	if k.Halted() {
		return 0, ErrHalted
	}
	p := k.spawn(initPid, cmdline)
	if err := p.loadSem.Acquire(k.ctx, 1); err != nil || k.Halted() {
		return 0, ErrHalted
	}
	if p.loadErr != nil {
		return 0, p.loadErr
	}
	return p.pid, nil
}

// WaitPid waits for a child of the kernel and returns its exit status.
func (k *Kernel) WaitPid(pid int) (int, error) {
	c := k.procs.claim(initPid, pid)
	if c == nil {
		return 0, errors.Errorf("pid %d is not a child of the kernel", pid)
	}
	if err := c.exitSem.Acquire(k.ctx, 1); err != nil || k.Halted() {
		return 0, ErrHalted
	}
	return k.procs.reap(c), nil
}

// Run executes cmdline to completion.
func (k *Kernel) Run(cmdline string) (int, error) {
	pid, err := k.Spawn(cmdline)
	if err != nil {
		return 0, err
	}
	return k.WaitPid(pid)
}

// thread is the kernel thread of one process, from load to teardown.
func (k *Kernel) thread(p *process) {
	defer k.threads.Done()
	log := k.Log.WithField("pid", p.pid)

	mem := cpu.NewMem(32, binary.LittleEndian, k.Frames)
	img, err := k.Loader.Load(p.cmdline, mem)
	if err == nil && k.Halted() {
		err = ErrHalted
	}
	if err != nil {
		mem.Destroy()
		log.WithError(err).Debug("load failed")
		p.loadErr = err
		k.procs.remove(p)
		p.loadSem.Release(1)
		return
	}
	p.name = img.Name
	p.mem = mem
	p.task = common.NewTask(p.pid, img.Name, mem, k.Config.MaxStr, k.Log)
	k.procs.setLoaded(p)
	log.WithField("cmdline", p.cmdline).Info("started")
	p.loadSem.Release(1)

	status, halted := k.execute(p, img)
	k.teardown(p, status, halted)
}

func (k *Kernel) execute(p *process, img *models.Image) (status int, halted bool) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case models.ExitStatus:
			status = int(r)
		case *models.Fault:
			p.task.Log.WithField("fault", r.Error()).Warn("killed")
			status = models.FaultStatus
		case models.Halted:
			halted = true
		default:
			// a crash in user code takes down its own process only
			p.task.Log.WithFields(logrus.Fields{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("crashed")
			status = models.FaultStatus
		}
	}()
	return img.Entry(img, &trapper{k: k, p: p}), false
}

func (k *Kernel) teardown(p *process, status int, halted bool) {
	if !halted {
		fmt.Fprintf(k.Console, "%s: exit(%d)\n", p.name, status)
	}
	p.task.Log.WithField("status", status).Info("exit")
	if len(p.files) > 0 {
		k.WithFS(func(_ filesys.Filesystem) {
			for fd, f := range p.files {
				f.Close()
				delete(p.files, fd)
			}
		})
	}
	p.mem.Destroy()
	k.procs.exit(p, status)
}

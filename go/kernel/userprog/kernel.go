// Package userprog is the Pintos user program kernel: process lifecycle and
// file syscalls on top of the common dispatch layer.
package userprog

import (
	"context"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/userprog/go/filesys"
	"github.com/lunixbochs/userprog/go/kernel/common"
	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

var ErrHalted = errors.New("machine halted")

type Kernel struct {
	common.KernelBase
	Config  *models.Config
	Console *Console
	Loader  models.Loader
	Frames  *cpu.Frames

	// fsLock is the global filesystem lock. fs is only touched with it held.
	fsLock sync.Mutex
	fs     filesys.Filesystem

	procs *procTable

	ctx      context.Context
	cancel   context.CancelFunc
	haltOnce sync.Once
	threads  sync.WaitGroup
}

func NewKernel(config *models.Config, fs filesys.Filesystem, loader models.Loader, log *logrus.Entry) *Kernel {
	config.Init()
	ctx, cancel := context.WithCancel(context.Background())
	k := &Kernel{
		Config:  config,
		Console: NewConsole(config.Output, config.Input, config.ConsoleChunk),
		Loader:  loader,
		Frames:  cpu.NewFrames(),
		fs:      fs,
		procs:   newProcTable(),
		ctx:     ctx,
		cancel:  cancel,
	}
	k.Log = log
	k.Strace = config.TraceSys
	k.Strsize = config.Strsize
	common.Init(k)
	return k
}

// Halted reports whether the machine has been powered off.
func (k *Kernel) Halted() bool {
	return k.ctx.Err() != nil
}

func (k *Kernel) Done() <-chan struct{} {
	return k.ctx.Done()
}

// Shutdown powers the machine off. Console output stops at once; every
// process thread unwinds at its next kernel entry.
func (k *Kernel) Shutdown() {
	k.haltOnce.Do(func() {
		k.Console.PowerOff()
		k.cancel()
		k.Log.WithField("console", humanize.Bytes(k.Console.Written())).Info("powering off")
	})
}

// Drain waits for every process thread to finish. Threads blocked in wait,
// exec or a console read are released by Shutdown.
func (k *Kernel) Drain() {
	k.threads.Wait()
}

// WithFS runs fn with the global filesystem lock held.
func (k *Kernel) WithFS(fn func(fs filesys.Filesystem)) {
	k.fsLock.Lock()
	defer k.fsLock.Unlock()
	fn(k.fs)
}

// Files lists the root directory.
func (k *Kernel) Files() (ents []filesys.Entry, err error) {
	k.WithFS(func(fs filesys.Filesystem) {
		ents, err = fs.List()
	})
	return
}

// NumProcs counts the entries in the process table.
func (k *Kernel) NumProcs() int {
	return k.procs.len()
}

type trapper struct {
	k *Kernel
	p *process
}

func (tr *trapper) Trap(f *models.TrapFrame) {
	if tr.k.Halted() {
		panic(models.Halted{})
	}
	if f.Vec != models.SyscallVec {
		common.Fault(uint64(f.Esp), fmt.Sprintf("unexpected interrupt vector %#x", f.Vec))
	}
	tr.k.Dispatch(tr.p.task, f)
}

func (tr *trapper) PageFault(addr uint64, write bool) {
	if tr.k.Halted() {
		panic(models.Halted{})
	}
	if write {
		common.Fault(addr, "page fault on write")
	}
	common.Fault(addr, "page fault on read")
}

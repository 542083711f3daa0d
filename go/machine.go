// Package userprog boots a simulated Pintos machine: console, filesystem,
// program loader and the user program kernel.
package userprog

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/userprog/go/filesys"
	"github.com/lunixbochs/userprog/go/kernel/common"
	kernel "github.com/lunixbochs/userprog/go/kernel/userprog"
	"github.com/lunixbochs/userprog/go/loader"
	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/trace"
	"github.com/lunixbochs/userprog/go/user/progs"
)

var ErrHalted = kernel.ErrHalted

type Machine struct {
	Config *models.Config
	Log    *logrus.Logger
	Kernel *kernel.Kernel
	Loader *loader.Registry

	traceOnce sync.Once
	trace     *trace.TraceWriter
	traceErr  error
}

func NewMachine(config *models.Config) (*Machine, error) {
	config.Init()
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	switch {
	case config.TraceSys:
		log.SetLevel(logrus.DebugLevel)
	case config.Verbose:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.WarnLevel)
	}

	var fs filesys.Filesystem = filesys.NewMemFS()
	if config.FsRoot != "" {
		hfs, err := filesys.NewHostFS(config.FsRoot)
		if err != nil {
			return nil, err
		}
		fs = hfs
	}
	reg := loader.NewRegistry(config.StackPages, config.HeapPages)
	progs.Register(reg)
	m := &Machine{
		Config: config,
		Log:    log,
		Loader: reg,
		Kernel: kernel.NewKernel(config, fs, reg, logrus.NewEntry(log)),
	}
	return m, nil
}

// startTrace opens Config.TraceFile on the first run and records every
// syscall from then on.
func (m *Machine) startTrace(cmdline string) error {
	if m.Config.TraceFile == "" {
		return nil
	}
	m.traceOnce.Do(func() {
		f, err := os.Create(m.Config.TraceFile)
		if err != nil {
			m.traceErr = errors.Wrap(err, "failed to create trace file")
			return
		}
		tw, err := trace.NewWriter(f, cmdline, m.Config.MaxStr)
		if err != nil {
			f.Close()
			m.traceErr = err
			return
		}
		m.trace = tw
		m.Kernel.Hooks = append(m.Kernel.Hooks, m.traceHook)
	})
	return m.traceErr
}

func (m *Machine) traceHook(t *common.Task, sys *common.Syscall, args []uint64, ret uint64, returned bool) {
	rec := &trace.Record{
		Pid:  int32(t.Pid),
		Num:  int32(sys.Num),
		Desc: sys.Trace(t, args, m.Config.Strsize),
	}
	if returned {
		rec.Returned = 1
		rec.Ret = uint32(ret)
		rec.Desc += sys.TraceRet(t, args, ret, m.Config.Strsize)
	}
	for _, arg := range args {
		rec.Args = append(rec.Args, uint32(arg))
	}
	if err := m.trace.Pack(rec); err != nil {
		t.Log.WithError(err).Error("trace write failed")
	}
}

// Spawn starts cmdline as a child of the kernel and returns its pid.
func (m *Machine) Spawn(cmdline string) (int, error) {
	if err := m.startTrace(cmdline); err != nil {
		return 0, err
	}
	return m.Kernel.Spawn(cmdline)
}

func (m *Machine) Wait(pid int) (int, error) {
	return m.Kernel.WaitPid(pid)
}

// Run executes cmdline as a child of the kernel and returns its exit status.
func (m *Machine) Run(cmdline string) (int, error) {
	if err := m.startTrace(cmdline); err != nil {
		return 0, err
	}
	return m.Kernel.Run(cmdline)
}

// Put copies data into a new file on the machine's filesystem.
func (m *Machine) Put(name string, data []byte) (err error) {
	m.Kernel.WithFS(func(fs filesys.Filesystem) {
		if err = fs.Create(name, uint32(len(data))); err != nil {
			return
		}
		var f filesys.File
		if f, err = fs.Open(name); err != nil {
			return
		}
		defer f.Close()
		var n int
		if n, err = f.Write(data); err == nil && n != len(data) {
			err = errors.Errorf("short write to %s: %d of %d bytes", name, n, len(data))
		}
	})
	return
}

// Get reads a whole file from the machine's filesystem.
func (m *Machine) Get(name string) (data []byte, err error) {
	m.Kernel.WithFS(func(fs filesys.Filesystem) {
		var f filesys.File
		if f, err = fs.Open(name); err != nil {
			return
		}
		defer f.Close()
		data = make([]byte, f.Length())
		var n int
		n, err = f.Read(data)
		data = data[:n]
	})
	return
}

func (m *Machine) Halt() {
	m.Kernel.Shutdown()
}

// Close powers the machine off and flushes the trace file.
func (m *Machine) Close() error {
	m.Kernel.Shutdown()
	if m.trace != nil {
		return m.trace.Close()
	}
	return nil
}

package userprog

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lunixbochs/userprog/go/filesys"
	"github.com/lunixbochs/userprog/go/kernel/common"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

// initPid is the kernel's own thread, the parent of every program started
// from outside the machine. It has no table entry.
const initPid = 0

// signal is a one-shot semaphore: created taken, released once.
func signal() *semaphore.Weighted {
	s := semaphore.NewWeighted(1)
	s.TryAcquire(1)
	return s
}

type process struct {
	pid     int
	parent  int
	cmdline string

	// set by the process's own thread before loaded is signalled
	name    string
	mem     *cpu.Mem
	task    *common.Task
	loadErr error

	// only the process's own thread touches its descriptors
	files  map[common.Fd]filesys.File
	nextFd common.Fd

	// guarded by procTable.mu
	children []int
	loaded   bool
	exited   bool
	waited   bool
	orphan   bool
	status   int

	loadSem *semaphore.Weighted
	exitSem *semaphore.Weighted
}

// procTable is every live or unreaped process, addressed by pid. Pids are
// never reused.
type procTable struct {
	mu    sync.Mutex
	next  int
	procs map[int]*process
}

func newProcTable() *procTable {
	return &procTable{next: initPid + 1, procs: make(map[int]*process)}
}

func (pt *procTable) add(parent int, cmdline string) *process {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	p := &process{
		pid:     pt.next,
		parent:  parent,
		cmdline: cmdline,
		files:   make(map[common.Fd]filesys.File),
		nextFd:  2,
		loadSem: signal(),
		exitSem: signal(),
	}
	pt.next++
	pt.procs[p.pid] = p
	if pp := pt.procs[parent]; pp != nil {
		pp.children = append(pp.children, p.pid)
	}
	return p
}

func (pt *procTable) get(pid int) *process {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.procs[pid]
}

func (pt *procTable) len() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return len(pt.procs)
}

// unlink drops p from the table and from its parent's child list. Callers hold mu.
func (pt *procTable) unlink(p *process) {
	delete(pt.procs, p.pid)
	if pp := pt.procs[p.parent]; pp != nil {
		for i, c := range pp.children {
			if c == p.pid {
				pp.children = append(pp.children[:i], pp.children[i+1:]...)
				break
			}
		}
	}
}

func (pt *procTable) remove(p *process) {
	pt.mu.Lock()
	pt.unlink(p)
	pt.mu.Unlock()
}

func (pt *procTable) setLoaded(p *process) {
	pt.mu.Lock()
	p.loaded = true
	pt.mu.Unlock()
}

// claim marks pid as waited for by parent. It returns nil unless pid is a
// loaded child of parent that nobody has waited for yet.
func (pt *procTable) claim(parent, pid int) *process {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	c := pt.procs[pid]
	if c == nil || c.parent != parent || !c.loaded || c.waited {
		return nil
	}
	c.waited = true
	return c
}

// reap frees an exited child's entry and returns its status.
func (pt *procTable) reap(c *process) int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.unlink(c)
	return c.status
}

// exit records status and wakes the waiter. Exited children are freed now,
// live ones become orphans that free themselves when they exit.
func (pt *procTable) exit(p *process, status int) {
	pt.mu.Lock()
	p.status = status
	p.exited = true
	for _, pid := range p.children {
		if c := pt.procs[pid]; c != nil {
			if c.exited {
				delete(pt.procs, pid)
			} else {
				c.orphan = true
			}
		}
	}
	p.children = nil
	if p.orphan {
		delete(pt.procs, p.pid)
	}
	pt.mu.Unlock()
	p.exitSem.Release(1)
}

func (pt *procTable) children(pid int) []int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if p := pt.procs[pid]; p != nil {
		return append([]int(nil), p.children...)
	}
	return nil
}

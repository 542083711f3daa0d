package loader

import (
	"sort"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

var (
	ErrNoProgram   = errors.New("no such program")
	ErrArgsTooLong = errors.New("command line does not fit on the stack")
)

// Programs are linked at the traditional i386 text address.
const CodeBase = 0x08048000

// Registry maps program names to built-in user programs.
type Registry struct {
	StackPages int
	HeapPages  int

	mu    sync.RWMutex
	progs map[string]models.Entry
}

func NewRegistry(stackPages, heapPages int) *Registry {
	return &Registry{
		StackPages: stackPages,
		HeapPages:  heapPages,
		progs:      make(map[string]models.Entry),
	}
}

func (r *Registry) Register(name string, entry models.Entry) {
	r.mu.Lock()
	r.progs[name] = entry
	r.mu.Unlock()
}

func (r *Registry) Lookup(name string) (models.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.progs[name]
	return entry, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.progs))
	for name := range r.progs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Load maps the program named by the first word of cmdline into mem and lays
// out its arguments on the stack.
func (r *Registry) Load(cmdline string, mem *cpu.Mem) (*models.Image, error) {
	argv, err := shellwords.Parse(cmdline)
	if err != nil {
		return nil, errors.Wrapf(err, "bad command line %q", cmdline)
	}
	if len(argv) == 0 {
		return nil, errors.Wrap(ErrNoProgram, "empty command line")
	}
	entry, ok := r.Lookup(argv[0])
	if !ok {
		return nil, errors.Wrapf(ErrNoProgram, "%q", argv[0])
	}

	// code: the program name stands in for its text
	if err := mem.MemMapProt(CodeBase, cpu.PageSize, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		return nil, errors.Wrap(err, "map code")
	}
	if err := mem.MemWrite(CodeBase, append([]byte(argv[0]), 0)); err != nil {
		return nil, errors.Wrap(err, "write code")
	}
	if err := mem.MemProt(CodeBase, cpu.PageSize, cpu.PROT_READ|cpu.PROT_EXEC); err != nil {
		return nil, errors.Wrap(err, "protect code")
	}

	heap := uint64(CodeBase + cpu.PageSize)
	heapSize := uint64(r.HeapPages) * cpu.PageSize
	if heapSize > 0 {
		if err := mem.MemMapProt(heap, heapSize, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
			return nil, errors.Wrap(err, "map heap")
		}
	}

	stackSize := uint64(r.StackPages) * cpu.PageSize
	if err := mem.MemMapProt(cpu.PhysBase-stackSize, stackSize, cpu.PROT_READ|cpu.PROT_WRITE); err != nil {
		return nil, errors.Wrap(err, "map stack")
	}
	esp, err := pushArgs(mem, cpu.PhysBase-stackSize, argv)
	if err != nil {
		return nil, err
	}
	return &models.Image{
		Name:    argv[0],
		Argv:    argv,
		Mem:     mem,
		Esp:     esp,
		Heap:    uint32(heap),
		HeapEnd: uint32(heap + heapSize),
		Entry:   entry,
	}, nil
}

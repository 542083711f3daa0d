package user

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/userprog/go/loader"
	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
	"github.com/lunixbochs/userprog/go/syscalls"
)

type pageFault struct {
	addr  uint64
	write bool
}

// recorder is a kernel that remembers the words of every syscall frame.
type recorder struct {
	mem    *cpu.Mem
	frames [][]uint32
	ret    uint32
}

func (r *recorder) Trap(f *models.TrapFrame) {
	var words []uint32
	for i := 0; i < 4; i++ {
		w, err := r.mem.ReadUint(uint64(f.Esp)+uint64(4*i), 4, 0)
		if err != nil {
			break
		}
		words = append(words, uint32(w))
	}
	r.frames = append(r.frames, words)
	f.Eax = r.ret
}

func (r *recorder) PageFault(addr uint64, write bool) {
	panic(pageFault{addr, write})
}

func newEnv(t *testing.T, cmdline string) (*Env, *recorder) {
	reg := loader.NewRegistry(1, 1)
	reg.Register("prog", Program(func(e *Env) int { return 0 }))
	mem := cpu.NewMem(32, binary.LittleEndian, nil)
	img, err := reg.Load(cmdline, mem)
	require.NoError(t, err)
	r := &recorder{mem: mem}
	return NewEnv(img, r), r
}

func TestArgs(t *testing.T) {
	e, _ := newEnv(t, "prog one two")
	assert.Equal(t, []string{"prog", "one", "two"}, e.Args)
}

func TestSyscallFrame(t *testing.T) {
	e, r := newEnv(t, "prog")
	esp := e.Esp
	r.ret = 5
	buf := e.Bytes([]byte("hello"))
	assert.Equal(t, 5, e.Write(1, buf, 5))
	assert.Equal(t, esp, e.Esp, "stack is balanced")
	require.Len(t, r.frames, 1)
	assert.Equal(t, []uint32{syscalls.SYS_WRITE, 1, buf, 5}, r.frames[0])

	r.ret = 0xffffffff
	assert.Equal(t, -1, e.Open("x"))
	assert.Equal(t, uint32(syscalls.SYS_OPEN), r.frames[1][0])
	assert.Equal(t, buf+8, e.Mark(), "string scratch released")
}

func TestUserFaults(t *testing.T) {
	e, _ := newEnv(t, "prog")
	assert.PanicsWithValue(t, pageFault{0, false}, func() { e.Word(0) })
	assert.PanicsWithValue(t, pageFault{loader.CodeBase, true}, func() { e.SetWord(loader.CodeBase, 1) })
	assert.PanicsWithValue(t, pageFault{cpu.PhysBase, false}, func() { e.Load(cpu.PhysBase, 1) })
	assert.Panics(t, func() {
		for {
			e.Alloc(cpu.PageSize)
		}
	})
}

func TestAlloc(t *testing.T) {
	e, _ := newEnv(t, "prog")
	a := e.Alloc(3)
	b := e.Alloc(1)
	assert.Equal(t, a+4, b)
	mark := e.Mark()
	e.Str("scratch")
	e.Release(mark)
	assert.Equal(t, mark, e.Alloc(0))
}

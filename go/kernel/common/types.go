package common

import (
	"reflect"

	"github.com/pkg/errors"
)

type (
	// Buf is user memory the kernel reads. When followed by a Len argument
	// the whole range is validated before the handler runs.
	Buf struct {
		Addr uint64
		T    *Task
	}
	// Obuf is user memory the kernel writes.
	Obuf struct{ Buf }
	Len  uint32
	Off  uint32
	Fd   int32
	Pid  int32
	Ptr  uint64
)

var (
	BufType  = reflect.TypeOf(Buf{})
	ObufType = reflect.TypeOf(Obuf{})
	LenType  = reflect.TypeOf(Len(0))
	TaskType = reflect.TypeOf(&Task{})
)

func NewBuf(t *Task, addr uint64) Buf {
	return Buf{T: t, Addr: addr}
}

func (b Buf) Read(size Len) ([]byte, error) {
	p := make([]byte, size)
	err := b.T.Mem.MemReadInto(p, b.Addr)
	return p, errors.Wrap(err, "Buf.Read() failed")
}

func (b Obuf) Write(p []byte) error {
	return errors.Wrap(b.T.Mem.MemWrite(b.Addr, p), "Obuf.Write() failed")
}

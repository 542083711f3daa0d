package loader

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

type stack struct {
	mem    *cpu.Mem
	sp     uint64
	bottom uint64
}

func (s *stack) PushBytes(p []byte) (uint64, error) {
	if s.sp-s.bottom < uint64(len(p)) {
		return 0, ErrArgsTooLong
	}
	s.sp -= uint64(len(p))
	return s.sp, s.mem.MemWrite(s.sp, p)
}

func (s *stack) Push(n uint32) (uint64, error) {
	if s.sp-s.bottom < 4 {
		return 0, ErrArgsTooLong
	}
	s.sp -= 4
	return s.sp, models.StrucAt(s.mem, s.sp, binary.LittleEndian).Pack(&n)
}

// pushArgs builds the initial stack of a process:
//
//	argv strings, word aligned
//	argv[argc] = NULL, argv[argc-1] ... argv[0]
//	argv, argc, fake return address   <- esp
func pushArgs(mem *cpu.Mem, bottom uint64, argv []string) (uint32, error) {
	s := &stack{mem: mem, sp: cpu.PhysBase, bottom: bottom}
	addrs := make([]uint64, len(argv))
	for i := len(argv) - 1; i >= 0; i-- {
		addr, err := s.PushBytes(append([]byte(argv[i]), 0))
		if err != nil {
			return 0, errors.Wrapf(err, "push argv[%d]", i)
		}
		addrs[i] = addr
	}
	if pad := s.sp % 4; pad != 0 {
		if _, err := s.PushBytes(make([]byte, pad)); err != nil {
			return 0, err
		}
	}
	if _, err := s.Push(0); err != nil {
		return 0, err
	}
	for i := len(addrs) - 1; i >= 0; i-- {
		if _, err := s.Push(uint32(addrs[i])); err != nil {
			return 0, err
		}
	}
	argvAddr := s.sp
	for _, word := range []uint64{argvAddr, uint64(len(argv)), 0} {
		if _, err := s.Push(uint32(word)); err != nil {
			return 0, err
		}
	}
	return uint32(s.sp), nil
}

package common

import (
	"github.com/lunixbochs/userprog/go/models"
)

// StackArgs reads syscall arguments from the user stack. The syscall number
// sits at esp, argument i at esp+4*(i+1). Every word is validated before it
// is read; a bad word faults the process.
func StackArgs(t *Task, f *models.TrapFrame) func(n int) []uint64 {
	return func(n int) []uint64 {
		ret := make([]uint64, n)
		for i := 0; i < n; i++ {
			addr := uint64(f.Esp) + uint64(WordSize*(i+1))
			word, err := t.Valid.ReadWord(addr)
			if err != nil {
				faultFrom(err)
			}
			ret[i] = uint64(word)
		}
		return ret
	}
}

// SyscallNum reads the syscall number word at esp.
func SyscallNum(t *Task, f *models.TrapFrame) int {
	word, err := t.Valid.ReadWord(uint64(f.Esp))
	if err != nil {
		faultFrom(err)
	}
	return int(int32(word))
}

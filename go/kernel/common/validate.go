package common

import (
	"encoding/binary"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/models/cpu"
)

// AddressSpace is the query interface a process address space exposes to
// the kernel. The validator never dereferences a user address it has not
// probed through IsMapped or Translate first. Mappings must be page granular:
// the validator probes one address per page and trusts the rest of that page.
type AddressSpace interface {
	IsMapped(addr uint64) bool
	IsWritable(addr uint64) bool
	Translate(addr uint64) (uint64, bool)

	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error
}

const WordSize = 4

type Validator struct {
	AS     AddressSpace
	MaxStr int
}

func NewValidator(as AddressSpace, maxStr int) *Validator {
	return &Validator{AS: as, MaxStr: maxStr}
}

func (v *Validator) probe(addr uint64, write bool) bool {
	if write {
		return v.AS.IsWritable(addr)
	}
	_, ok := v.AS.Translate(addr)
	return ok
}

func (v *Validator) rangeOk(addr, length uint64, write bool) bool {
	if addr == 0 || addr >= cpu.PhysBase {
		return false
	}
	if length == 0 {
		return true
	}
	end := addr + length
	if end < addr || end > cpu.PhysBase {
		return false
	}
	for a := addr; a < end; a = cpu.PageFloor(a) + cpu.PageSize {
		if !v.probe(a, write) {
			return false
		}
	}
	return true
}

// IsValid reports whether every byte of addr:addr+length is a mapped user byte.
func (v *Validator) IsValid(addr, length uint64) bool {
	return v.rangeOk(addr, length, false)
}

// IsValidWrite is IsValid for a range the kernel is about to write.
func (v *Validator) IsValidWrite(addr, length uint64) bool {
	return v.rangeOk(addr, length, true)
}

func (v *Validator) CheckRange(addr, length uint64, write bool) error {
	if !v.rangeOk(addr, length, write) {
		if addr == 0 {
			return &models.Fault{Reason: "null pointer"}
		}
		if write {
			return &models.Fault{Addr: addr, Reason: "bad user buffer (write)"}
		}
		return &models.Fault{Addr: addr, Reason: "bad user buffer"}
	}
	return nil
}

// ReadWord reads one little-endian word of user memory.
func (v *Validator) ReadWord(addr uint64) (uint32, error) {
	if err := v.CheckRange(addr, WordSize, false); err != nil {
		return 0, err
	}
	var word uint32
	if err := models.StrucAt(v.AS, addr, binary.LittleEndian).Unpack(&word); err != nil {
		return 0, &models.Fault{Addr: addr, Reason: "bad user word"}
	}
	return word, nil
}

// ReadStr scans a NUL-terminated user string one page at a time, probing each
// page before reading from it. A string that runs off the end of valid memory
// is rejected when the scan reaches the first invalid byte.
func (v *Validator) ReadStr(addr uint64) (string, error) {
	if addr == 0 {
		return "", &models.Fault{Reason: "null string"}
	}
	var out []byte
	a := addr
	for len(out) < v.MaxStr {
		if a >= cpu.PhysBase || !v.AS.IsMapped(a) {
			return "", &models.Fault{Addr: a, Reason: "unterminated user string"}
		}
		chunk := cpu.PageFloor(a) + cpu.PageSize - a
		if rest := uint64(v.MaxStr - len(out)); chunk > rest {
			chunk = rest
		}
		p := make([]byte, chunk)
		if err := v.AS.MemReadInto(p, a); err != nil {
			return "", &models.Fault{Addr: a, Reason: "bad user string"}
		}
		for i, c := range p {
			if c == 0 {
				return string(append(out, p[:i]...)), nil
			}
		}
		out = append(out, p...)
		a += chunk
	}
	return "", &models.Fault{Addr: addr, Reason: "user string too long"}
}

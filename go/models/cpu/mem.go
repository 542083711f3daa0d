package cpu

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Frames hands out simulated physical addresses. One instance is shared by
// every address space of a machine so translations never collide.
type Frames struct {
	next atomic.Uint64
}

func NewFrames() *Frames {
	f := &Frames{}
	f.next.Store(PageSize)
	return f
}

func (f *Frames) Alloc(size uint64) uint64 {
	size = PageRound(size)
	return f.next.Add(size) - size
}

// Mem is the user half of one process address space. It wraps MemSim and
// refuses any mapping at or above PhysBase.
type Mem struct {
	bits uint
	// methods return an error for addresses that do not fit inside mask
	mask   uint64
	sim    *MemSim
	frames *Frames

	order binary.ByteOrder
}

func NewMem(bits uint, order binary.ByteOrder, frames *Frames) *Mem {
	if frames == nil {
		frames = NewFrames()
	}
	return &Mem{
		bits:   bits,
		mask:   ^uint64(0) >> (64 - bits),
		sim:    NewMemSim(),
		frames: frames,
		order:  order,
	}
}

func (m *Mem) Bits() uint                  { return m.bits }
func (m *Mem) ByteOrder() binary.ByteOrder { return m.order }

// aligned rejects regions that do not start and end on page boundaries.
// Mappings are page granular so a one-probe-per-page check covers every byte.
func aligned(addr, size uint64) error {
	if addr&PageMask != 0 || size&PageMask != 0 {
		return errors.Errorf("region %#x+%#x is not page aligned", addr, size)
	}
	return nil
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if err := aligned(addr, size); err != nil {
		return err
	}
	end := addr + size
	if end&m.mask != end || end < addr {
		return errors.New("region outside memory range")
	}
	if end > PhysBase {
		return errors.Errorf("region %#x-%#x crosses into kernel space", addr, end)
	}
	page := m.sim.Map(addr, size, prot, false)
	page.Phys = m.frames.Alloc(size)
	return nil
}

func (m *Mem) MemProt(addr, size uint64, prot int) error {
	if err := aligned(addr, size); err != nil {
		return err
	}
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Prot(addr, size, prot)
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if err := aligned(addr, size); err != nil {
		return err
	}
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Unmap(addr, size)
	return nil
}

// Destroy drops every mapping.
func (m *Mem) Destroy() {
	m.sim.Clear()
}

func (m *Mem) Mappings() Pages {
	return m.sim.Pages()
}

// IsMapped reports whether addr is a user address backed by an accessible mapping.
func (m *Mem) IsMapped(addr uint64) bool {
	if addr >= PhysBase {
		return false
	}
	page := m.sim.Find(addr)
	return page != nil && page.Prot != PROT_NONE
}

// IsWritable is IsMapped plus PROT_WRITE.
func (m *Mem) IsWritable(addr uint64) bool {
	if addr >= PhysBase {
		return false
	}
	page := m.sim.Find(addr)
	return page != nil && page.Prot&PROT_WRITE != 0
}

// Translate returns the physical address backing a user address.
func (m *Mem) Translate(addr uint64) (uint64, bool) {
	if addr >= PhysBase {
		return 0, false
	}
	page := m.sim.Find(addr)
	if page == nil || page.Prot == PROT_NONE {
		return 0, false
	}
	return page.Phys + (addr - page.Addr), true
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

// Read while checking protections, as user-mode code would.
func (m *Mem) ReadProt(addr, size uint64, prot int) ([]byte, error) {
	if addr+size > PhysBase {
		return nil, &MemError{Addr: addr, Size: int(size), Enum: MEM_KERNEL}
	}
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, prot); err != nil {
		return nil, err
	}
	return p, nil
}

// Write while checking protections, as user-mode code would.
func (m *Mem) WriteProt(addr uint64, p []byte, prot int) error {
	if addr+uint64(len(p)) > PhysBase {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_KERNEL}
	}
	return m.sim.Write(addr, p, prot)
}

func (m *Mem) ReadUint(addr uint64, size, prot int) (uint64, error) {
	p, err := m.ReadProt(addr, uint64(size), prot)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(p[0]), nil
	case 2:
		return uint64(m.order.Uint16(p)), nil
	case 4:
		return uint64(m.order.Uint32(p)), nil
	case 8:
		return m.order.Uint64(p), nil
	}
	return 0, errors.Errorf("unsupported uint size: %d", size)
}

func (m *Mem) WriteUint(addr uint64, size, prot int, val uint64) error {
	p := make([]byte, size)
	switch size {
	case 1:
		p[0] = byte(val)
	case 2:
		m.order.PutUint16(p, uint16(val))
	case 4:
		m.order.PutUint32(p, uint32(val))
	case 8:
		m.order.PutUint64(p, val)
	default:
		return errors.Errorf("unsupported uint size: %d", size)
	}
	return m.WriteProt(addr, p, prot)
}

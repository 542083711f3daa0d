package cpu

import (
	"fmt"

	"github.com/google/btree"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	case MEM_KERNEL:
		reason = "kernel address"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim is a set of non-overlapping regions indexed by start address.
type MemSim struct {
	tree *btree.BTreeG[*Page]
}

func NewMemSim() *MemSim {
	return &MemSim{tree: btree.NewG(4, func(a, b *Page) bool { return a.Addr < b.Addr })}
}

func (m *MemSim) Len() int { return m.tree.Len() }

// Clear drops every region.
func (m *MemSim) Clear() { m.tree.Clear(false) }

// Pages returns the regions in address order.
func (m *MemSim) Pages() Pages {
	ret := make(Pages, 0, m.tree.Len())
	m.tree.Ascend(func(pg *Page) bool {
		ret = append(ret, pg)
		return true
	})
	return ret
}

// Find returns the region containing addr, or nil.
func (m *MemSim) Find(addr uint64) *Page {
	var found *Page
	m.tree.DescendLessOrEqual(&Page{Addr: addr}, func(pg *Page) bool {
		if pg.Contains(addr) {
			found = pg
		}
		return false
	})
	return found
}

// overlapping returns every region intersecting addr:addr+size, in order.
func (m *MemSim) overlapping(addr, size uint64) Pages {
	var ret Pages
	start := addr
	if pg := m.Find(addr); pg != nil {
		start = pg.Addr
	}
	end := addr + size
	m.tree.AscendGreaterOrEqual(&Page{Addr: start}, func(pg *Page) bool {
		if pg.Addr >= end {
			return false
		}
		ret = append(ret, pg)
		return true
	})
	return ret
}

// contiguous visits the regions covering addr:addr+size until a gap.
func (m *MemSim) contiguous(addr, size uint64, fn func(pg *Page)) (covered bool) {
	end := addr + size
	if size == 0 {
		return m.Find(addr) != nil
	}
	for addr < end {
		pg := m.Find(addr)
		if pg == nil {
			return false
		}
		fn(pg)
		addr = pg.Addr + pg.Size
	}
	return true
}

// RangeValid reports whether addr:addr+size is fully mapped and, when prot is
// nonzero, whether every covering region grants all of prot.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	protGood = true
	mapGood = m.contiguous(addr, size, func(pg *Page) {
		if prot > 0 && (pg.Prot == 0 || pg.Prot&prot != prot) {
			protGood = false
		}
	})
	if !mapGood {
		protGood = false
	}
	return mapGood, protGood
}

// Map replaces anything in addr:addr+size with one region. Unless zero is
// set the new region starts with whatever bytes were mapped there before.
func (m *MemSim) Map(addr, size uint64, prot int, zero bool) *Page {
	data := make([]byte, size)
	if !zero {
		for _, pg := range m.overlapping(addr, size) {
			if start, n, ok := pg.Intersect(addr, size); ok {
				copy(data[start-addr:], pg.Data[start-pg.Addr:start-pg.Addr+n])
			}
		}
	}
	m.Unmap(addr, size)
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: data}
	m.tree.ReplaceOrInsert(page)
	return page
}

// carve splits every region overlapping addr:addr+size at the range edges and
// hands the inner piece to keep, which decides whether it stays mapped.
func (m *MemSim) carve(addr, size uint64, keep func(mid *Page) bool) {
	for _, pg := range m.overlapping(addr, size) {
		start, n, _ := pg.Intersect(addr, size)
		m.tree.Delete(pg)
		left, right := pg.Split(start, n)
		if left != nil {
			m.tree.ReplaceOrInsert(left)
		}
		if right != nil {
			m.tree.ReplaceOrInsert(right)
		}
		if keep(pg) {
			m.tree.ReplaceOrInsert(pg)
		}
	}
}

func (m *MemSim) Prot(addr, size uint64, prot int) {
	m.carve(addr, size, func(mid *Page) bool {
		mid.Prot = prot
		return true
	})
}

func (m *MemSim) Unmap(addr, size uint64) {
	m.carve(addr, size, func(*Page) bool { return false })
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap || !gprot {
		enum := MEM_READ_UNMAPPED
		switch {
		case gmap && prot&PROT_EXEC != 0:
			enum = MEM_FETCH_PROT
		case gmap:
			enum = MEM_READ_PROT
		case prot&PROT_EXEC != 0:
			enum = MEM_FETCH_UNMAPPED
		}
		return &MemError{Addr: addr, Size: len(p), Enum: enum}
	}
	m.contiguous(addr, uint64(len(p)), func(pg *Page) {
		n := copy(p, pg.Data[addr-pg.Addr:])
		addr, p = addr+uint64(n), p[n:]
	})
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	m.contiguous(addr, uint64(len(p)), func(pg *Page) {
		n := copy(pg.Data[addr-pg.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	})
	return nil
}

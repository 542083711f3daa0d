package cpu

import (
	"bytes"
	"encoding/binary"
	"testing"
)

var asdf = []byte("asdf")

func TestMemRange(t *testing.T) {
	mem := NewMem(16, binary.LittleEndian, nil)
	if err := mem.MemMapProt(0x1000, 0x1000, PROT_READ); err != nil {
		t.Fatal("failed to map memory:", err)
	}
	if err := mem.MemMapProt(0xf000, 0x2000, 0); err == nil {
		t.Fatal("mapped memory outside range")
	}
	if err := mem.MemWrite(0x2000, asdf); err == nil {
		t.Error("write succeeded above mapped memory")
	}
}

func TestMemAlignment(t *testing.T) {
	mem := NewMem(32, binary.LittleEndian, nil)
	for _, r := range [][2]uint64{{0x10, 0x10}, {0x1000, 0x10}, {0x1010, 0x1000}} {
		if err := mem.MemMapProt(r[0], r[1], PROT_READ); err == nil {
			t.Errorf("unaligned map (%#x, %#x) succeeded", r[0], r[1])
		}
	}
	if err := mem.MemMapProt(0x1000, 2*PageSize, PROT_READ|PROT_WRITE); err != nil {
		t.Fatal(err)
	}
	if err := mem.MemProt(0x1800, PageSize, PROT_READ); err == nil {
		t.Error("unaligned reprotect succeeded")
	}
	if err := mem.MemUnmap(0x1000, 0x800); err == nil {
		t.Error("unaligned unmap succeeded")
	}
	for _, pg := range mem.Mappings() {
		if pg.Addr&PageMask != 0 || pg.Size&PageMask != 0 {
			t.Errorf("unaligned region %s", pg)
		}
	}
}

func TestMemKernelSplit(t *testing.T) {
	mem := NewMem(32, binary.LittleEndian, nil)
	if err := mem.MemMapProt(PhysBase-PageSize, PageSize, PROT_READ|PROT_WRITE); err != nil {
		t.Fatal("failed to map top user page:", err)
	}
	if err := mem.MemMapProt(PhysBase, PageSize, PROT_READ); err == nil {
		t.Fatal("mapped memory above PhysBase")
	}
	if err := mem.MemMapProt(PhysBase-PageSize, 2*PageSize, PROT_READ); err == nil {
		t.Fatal("mapped memory across PhysBase")
	}
	if !mem.IsMapped(PhysBase - 1) {
		t.Error("last user byte should be mapped")
	}
	if mem.IsMapped(PhysBase) {
		t.Error("PhysBase should never be mapped")
	}
	if _, err := mem.ReadProt(PhysBase-2, 4, PROT_READ); err == nil {
		t.Error("user read across PhysBase succeeded")
	}
}

func TestMemTranslate(t *testing.T) {
	frames := NewFrames()
	a := NewMem(32, binary.LittleEndian, frames)
	b := NewMem(32, binary.LittleEndian, frames)
	for _, m := range []*Mem{a, b} {
		if err := m.MemMapProt(0x8048000, 2*PageSize, PROT_READ); err != nil {
			t.Fatal(err)
		}
	}
	pa, ok := a.Translate(0x8048010)
	if !ok {
		t.Fatal("Translate() failed on mapped address")
	}
	pb, ok := b.Translate(0x8048010)
	if !ok {
		t.Fatal("Translate() failed on mapped address")
	}
	if pa == pb {
		t.Error("two address spaces share a physical frame")
	}
	if next, _ := a.Translate(0x8049010); next != pa+PageSize {
		t.Errorf("Translate() not contiguous: %#x vs %#x", next, pa+PageSize)
	}
	if _, ok := a.Translate(0x804a000); ok {
		t.Error("Translate() succeeded past mapping")
	}
	if err := a.MemProt(0x8049000, PageSize, PROT_NONE); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Translate(0x8049000); ok {
		t.Error("Translate() succeeded on PROT_NONE page")
	}
	if a.IsMapped(0x8049000) {
		t.Error("IsMapped() true on PROT_NONE page")
	}
	if next, _ := a.Translate(0x8048fff); next != pa+0xfef {
		t.Error("Translate() changed after reprotecting a neighbor")
	}
}

func TestMem(t *testing.T) {
	mappings := [][]uint64{
		{0x1000, 0x1000, PROT_READ | PROT_WRITE | PROT_EXEC},
		{0x2000, 0x1000, PROT_READ},
		{0x3000, 0x1000, PROT_READ | PROT_WRITE},
		{0x4000, 0x1000, PROT_READ | PROT_EXEC},
		{0x5000, 0x1000, PROT_EXEC},
	}

	mem := NewMem(16, binary.LittleEndian, nil)
	for _, v := range mappings {
		if err := mem.MemMapProt(v[0], v[1], int(v[2])); err != nil {
			t.Fatalf("failed to map memory (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
	}
	// write outside bounds
	if err := mem.MemWrite(0, asdf); err == nil {
		t.Error("write succeeded below mapped memory")
	}
	if err := mem.MemWrite(0x6000, asdf); err == nil {
		t.Error("write succeeded above mapped memory")
	}
	// write inside bounds
	for _, v := range mappings {
		if err := mem.MemWrite(v[0], asdf); err != nil {
			t.Error("write failed inside mapped memory")
		}
	}
	// try to read our asdf from each mapping
	for _, v := range mappings {
		if tmp, err := mem.MemRead(v[0], uint64(len(asdf))); err != nil {
			t.Error("read failed inside mapped memory")
		} else if !bytes.Equal(tmp, asdf) {
			t.Error("read returned bad value")
		}
	}
	// now test memory protections
	tmp := make([]byte, 0x1000)
	for _, v := range mappings {
		if _, err := mem.ReadProt(v[0], v[1], int(v[2])); err != nil {
			t.Errorf("valid read failed on (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
		if _, err := mem.ReadProt(v[0], v[1], 8); err == nil {
			t.Errorf("invalid read succeeded on (%#x, %#x, %d)", v[0], v[1], v[2])
		}
		if err := mem.WriteProt(v[0], tmp, int(v[2])); err != nil {
			t.Errorf("valid write failed on (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
		if err := mem.WriteProt(v[0], tmp, 8); err == nil {
			t.Errorf("invalid write succeeded on (%#x, %#x, %d)", v[0], v[1], v[2])
		}
	}
	// writability follows PROT_WRITE
	for _, v := range mappings {
		if mem.IsWritable(v[0]) != (v[2]&PROT_WRITE != 0) {
			t.Errorf("IsWritable(%#x) mismatch", v[0])
		}
	}
}

func TestMemUint(t *testing.T) {
	rawtest := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ltable := map[int]uint64{
		1: 0x1,
		2: 0x0201,
		4: 0x04030201,
		8: 0x0807060504030201,
	}
	btable := map[int]uint64{
		1: 0x1,
		2: 0x0102,
		4: 0x01020304,
		8: 0x0102030405060708,
	}

	meml := NewMem(32, binary.LittleEndian, nil)
	memb := NewMem(32, binary.BigEndian, nil)

	if err := meml.MemMapProt(0x1000, 0x1000, PROT_READ|PROT_WRITE); err != nil {
		t.Fatal("failed to map memory:", err)
	}
	if err := memb.MemMapProt(0x1000, 0x1000, PROT_READ|PROT_WRITE); err != nil {
		t.Fatal("failed to map memory:", err)
	}
	if err := meml.MemWrite(0x1000, rawtest); err != nil {
		t.Error("failed to write memory:", err)
	}
	if err := memb.MemWrite(0x1000, rawtest); err != nil {
		t.Error("failed to write memory:", err)
	}
	for size, val := range ltable {
		if n, err := meml.ReadUint(0x1000, size, PROT_READ); err != nil {
			t.Error("failed to read uint:", err)
		} else if n != val {
			t.Error("inconsistent uint value:", n, val)
		}
	}
	for size, val := range btable {
		if n, err := memb.ReadUint(0x1000, size, PROT_READ); err != nil {
			t.Error("failed to read uint:", err)
		} else if n != val {
			t.Error("inconsistent uint value:", n, val)
		}
	}
	for size, val := range ltable {
		if err := meml.WriteUint(0x1000, size, PROT_WRITE, val); err != nil {
			t.Error("failed to write uint:", err)
		}
		if n, err := meml.ReadUint(0x1000, size, PROT_READ); err != nil {
			t.Error("failed to read uint:", err)
		} else if n != val {
			t.Error("inconsistent uint value:", n, val)
		}
	}
}

package cpu

import (
	"fmt"
	"strings"
)

// Page is one mapped region. Regions are page aligned in practice but the
// simulator does not require it.
type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte
	// Phys is the simulated physical address backing Addr.
	Phys uint64

	Desc string
}

func (p *Page) String() string {
	prot := []byte("---")
	for i, c := range "rwx" {
		if p.Prot&(1<<i) != 0 {
			prot[i] = byte(c)
		}
	}
	desc := fmt.Sprintf("%#x-%#x %s", p.Addr, p.Addr+p.Size, prot)
	if p.Desc != "" {
		desc += " [" + p.Desc + "]"
	}
	return desc
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

// Intersect clips addr:addr+size to this region.
func (p *Page) Intersect(addr, size uint64) (start, n uint64, ok bool) {
	start = max(p.Addr, addr)
	end := min(p.Addr+p.Size, addr+size)
	if end <= start {
		return 0, 0, false
	}
	return start, end - start, true
}

func (p *Page) Overlaps(addr, size uint64) bool {
	_, _, ok := p.Intersect(addr, size)
	return ok
}

func (p *Page) slice(addr, size uint64) *Page {
	o := addr - p.Addr
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: p.Data[o : o+size], Phys: p.Phys + o, Desc: p.Desc}
}

// Split shrinks p to addr:addr+size, which must lie inside p, and returns
// the pieces cut off either side. Pieces share p's backing data.
func (p *Page) Split(addr, size uint64) (left, right *Page) {
	end := p.Addr + p.Size
	if addr+size < end {
		right = p.slice(addr+size, end-addr-size)
	}
	if addr > p.Addr {
		left = p.slice(p.Addr, addr-p.Addr)
	}
	mid := p.slice(addr, size)
	p.Addr, p.Size, p.Data, p.Phys = mid.Addr, mid.Size, mid.Data, mid.Phys
	return left, right
}

type Pages []*Page

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

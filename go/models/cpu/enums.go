package cpu

// address space layout of a 32-bit user process
const (
	PageSize = 0x1000
	PageMask = PageSize - 1

	// PhysBase is the user/kernel split: every user address is below it.
	PhysBase = 0xc0000000
)

// these errors are reported by MemError.Enum
const (
	MEM_READ_UNMAPPED  = 19
	MEM_WRITE_UNMAPPED = 20
	MEM_FETCH_UNMAPPED = 21
	MEM_WRITE_PROT     = 12
	MEM_READ_PROT      = 13
	MEM_FETCH_PROT     = 14
	MEM_KERNEL         = 22
)

// these constants are used for memory protections
const (
	PROT_NONE  = 0
	PROT_READ  = 1
	PROT_WRITE = 2
	PROT_EXEC  = 4
	PROT_ALL   = 7
)

func PageRound(addr uint64) uint64 {
	return (addr + PageMask) &^ PageMask
}

func PageFloor(addr uint64) uint64 {
	return addr &^ PageMask
}

package models

// TrapFrame is the register state saved by the trap entry. The kernel only
// reads Esp and only writes Eax.
type TrapFrame struct {
	Esp uint32
	Eax uint32
	// Vec is the interrupt vector that raised the trap.
	Vec int
}

const SyscallVec = 0x30

// Trapper is the kernel side of the trap entry mechanism.
type Trapper interface {
	// Trap dispatches a syscall. It returns only for value-returning syscalls.
	Trap(f *TrapFrame)
	// PageFault is raised when user code touches memory it cannot access.
	PageFault(addr uint64, write bool)
}

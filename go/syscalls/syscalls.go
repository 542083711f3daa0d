// Package syscalls is the numbering contract between user programs and the
// kernel. The numbers match Pintos lib/syscall-nr.h and must never change.
package syscalls

const (
	SYS_HALT = iota
	SYS_EXIT
	SYS_EXEC
	SYS_WAIT
	SYS_CREATE
	SYS_REMOVE
	SYS_OPEN
	SYS_FILESIZE
	SYS_READ
	SYS_WRITE
	SYS_SEEK
	SYS_TELL
	SYS_CLOSE

	// reserved for later projects, not implemented
	SYS_MMAP
	SYS_MUNMAP
	SYS_CHDIR
	SYS_MKDIR
	SYS_READDIR
	SYS_ISDIR
	SYS_INUMBER

	NumSyscalls
)

var names = [NumSyscalls]string{
	SYS_HALT:     "halt",
	SYS_EXIT:     "exit",
	SYS_EXEC:     "exec",
	SYS_WAIT:     "wait",
	SYS_CREATE:   "create",
	SYS_REMOVE:   "remove",
	SYS_OPEN:     "open",
	SYS_FILESIZE: "filesize",
	SYS_READ:     "read",
	SYS_WRITE:    "write",
	SYS_SEEK:     "seek",
	SYS_TELL:     "tell",
	SYS_CLOSE:    "close",
	SYS_MMAP:     "mmap",
	SYS_MUNMAP:   "munmap",
	SYS_CHDIR:    "chdir",
	SYS_MKDIR:    "mkdir",
	SYS_READDIR:  "readdir",
	SYS_ISDIR:    "isdir",
	SYS_INUMBER:  "inumber",
}

var nums map[string]int

func init() {
	nums = make(map[string]int, NumSyscalls)
	for i, name := range names {
		nums[name] = i
	}
}

// Name returns the name of a syscall number, or "" if it is out of range.
func Name(num int) string {
	if num < 0 || num >= NumSyscalls {
		return ""
	}
	return names[num]
}

// Num returns the number for a syscall name.
func Num(name string) (int, bool) {
	n, ok := nums[name]
	return n, ok
}

// Package filesys holds the flat, single-directory filesystems the kernel
// serves files from. None of them is safe for concurrent use: the kernel
// serializes every call behind its global filesystem lock.
package filesys

import (
	"github.com/pkg/errors"
)

// NameMax is the longest file name the root directory accepts.
const NameMax = 14

var (
	ErrNotFound    = errors.New("No such file or directory")
	ErrExists      = errors.New("File exists")
	ErrNameTooLong = errors.New("File name too long")
	ErrBadName     = errors.New("Invalid file name")
	ErrClosed      = errors.New("File already closed")
)

type Filesystem interface {
	// Create makes a new file of the given size, zero filled.
	Create(name string, size uint32) error
	// Remove unlinks name. Files already open stay usable until closed.
	Remove(name string) error
	Open(name string) (File, error)
	List() ([]Entry, error)
}

// File is one open handle. Each handle has its own position.
type File interface {
	// Read reads from the current position and advances it. It returns 0 at
	// or past end of file.
	Read(p []byte) (int, error)
	// Write writes at the current position without growing the file, so it
	// may write fewer than len(p) bytes.
	Write(p []byte) (int, error)
	Seek(pos uint32)
	Tell() uint32
	Length() uint32
	Close() error
}

type Entry struct {
	Name string
	Size uint32
}

func checkName(name string) error {
	if name == "" {
		return ErrBadName
	}
	if len(name) > NameMax {
		return errors.Wrapf(ErrNameTooLong, "%q", name)
	}
	return nil
}

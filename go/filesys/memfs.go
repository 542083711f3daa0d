package filesys

import (
	"github.com/google/btree"
	"github.com/pkg/errors"
)

type inode struct {
	data []byte
}

type dirent struct {
	name  string
	inode *inode
}

// MemFS keeps the whole filesystem in memory, with the directory ordered by name.
type MemFS struct {
	dir *btree.BTreeG[*dirent]
}

func NewMemFS() *MemFS {
	return &MemFS{
		dir: btree.NewG(8, func(a, b *dirent) bool { return a.name < b.name }),
	}
}

func (fs *MemFS) lookup(name string) *dirent {
	d, _ := fs.dir.Get(&dirent{name: name})
	return d
}

func (fs *MemFS) Create(name string, size uint32) error {
	if err := checkName(name); err != nil {
		return err
	}
	if fs.lookup(name) != nil {
		return errors.Wrapf(ErrExists, "create %q", name)
	}
	fs.dir.ReplaceOrInsert(&dirent{name: name, inode: &inode{data: make([]byte, size)}})
	return nil
}

func (fs *MemFS) Remove(name string) error {
	if _, ok := fs.dir.Delete(&dirent{name: name}); !ok {
		return errors.Wrapf(ErrNotFound, "remove %q", name)
	}
	return nil
}

func (fs *MemFS) Open(name string) (File, error) {
	d := fs.lookup(name)
	if d == nil {
		return nil, errors.Wrapf(ErrNotFound, "open %q", name)
	}
	return &memFile{inode: d.inode}, nil
}

func (fs *MemFS) List() ([]Entry, error) {
	var out []Entry
	fs.dir.Ascend(func(d *dirent) bool {
		out = append(out, Entry{Name: d.name, Size: uint32(len(d.inode.data))})
		return true
	})
	return out, nil
}

type memFile struct {
	inode  *inode
	pos    uint32
	closed bool
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if f.pos >= uint32(len(f.inode.data)) {
		return 0, nil
	}
	n := copy(p, f.inode.data[f.pos:])
	f.pos += uint32(n)
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if f.pos >= uint32(len(f.inode.data)) {
		return 0, nil
	}
	n := copy(f.inode.data[f.pos:], p)
	f.pos += uint32(n)
	return n, nil
}

func (f *memFile) Seek(pos uint32) { f.pos = pos }
func (f *memFile) Tell() uint32    { return f.pos }
func (f *memFile) Length() uint32  { return uint32(len(f.inode.data)) }

func (f *memFile) Close() error {
	if f.closed {
		return ErrClosed
	}
	f.closed = true
	return nil
}

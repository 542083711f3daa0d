package filesys

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// HostFS serves the files of one host directory. Names never leave the root.
type HostFS struct {
	Root string
}

func NewHostFS(root string) (*HostFS, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "hostfs root")
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "hostfs root")
	}
	if !st.IsDir() {
		return nil, errors.Errorf("hostfs root %s is not a directory", root)
	}
	return &HostFS{Root: root}, nil
}

func (fs *HostFS) path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if strings.ContainsRune(name, '/') || name == "." || name == ".." {
		return "", errors.Wrapf(ErrBadName, "%q", name)
	}
	return filepath.Join(fs.Root, name), nil
}

func hostErr(err error, op, name string) error {
	switch {
	case os.IsNotExist(err):
		return errors.Wrapf(ErrNotFound, "%s %q", op, name)
	case os.IsExist(err):
		return errors.Wrapf(ErrExists, "%s %q", op, name)
	}
	return errors.Wrapf(err, "%s %q", op, name)
}

func (fs *HostFS) Create(name string, size uint32) error {
	path, err := fs.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return hostErr(err, "create", name)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		return hostErr(err, "create", name)
	}
	return nil
}

func (fs *HostFS) Remove(name string) error {
	path, err := fs.path(name)
	if err != nil {
		return hostErr(os.ErrNotExist, "remove", name)
	}
	if err := os.Remove(path); err != nil {
		return hostErr(err, "remove", name)
	}
	return nil
}

func (fs *HostFS) Open(name string) (File, error) {
	path, err := fs.path(name)
	if err != nil {
		return nil, hostErr(os.ErrNotExist, "open", name)
	}
	// symlinks could point outside Root, so only plain files are opened
	lst, err := os.Lstat(path)
	if err != nil {
		return nil, hostErr(err, "open", name)
	}
	if !lst.Mode().IsRegular() {
		return nil, hostErr(os.ErrNotExist, "open", name)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, hostErr(err, "open", name)
	}
	if st, err := f.Stat(); err != nil || !os.SameFile(lst, st) {
		f.Close()
		return nil, hostErr(os.ErrNotExist, "open", name)
	}
	return &hostFile{f: f}, nil
}

func (fs *HostFS) List() ([]Entry, error) {
	ents, err := os.ReadDir(fs.Root)
	if err != nil {
		return nil, errors.Wrap(err, "list")
	}
	var out []Entry
	for _, e := range ents {
		if !e.Type().IsRegular() || len(e.Name()) > NameMax {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: e.Name(), Size: uint32(info.Size())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type hostFile struct {
	f   *os.File
	pos uint32
}

func (h *hostFile) Read(p []byte) (int, error) {
	n, err := h.f.ReadAt(p, int64(h.pos))
	h.pos += uint32(n)
	if err == io.EOF {
		err = nil
	}
	return n, errors.Wrap(err, "read")
}

func (h *hostFile) Write(p []byte) (int, error) {
	length := h.Length()
	if h.pos >= length {
		return 0, nil
	}
	if rest := length - h.pos; uint32(len(p)) > rest {
		p = p[:rest]
	}
	n, err := h.f.WriteAt(p, int64(h.pos))
	h.pos += uint32(n)
	return n, errors.Wrap(err, "write")
}

func (h *hostFile) Seek(pos uint32) { h.pos = pos }
func (h *hostFile) Tell() uint32    { return h.pos }

func (h *hostFile) Length() uint32 {
	st, err := h.f.Stat()
	if err != nil {
		return 0
	}
	return uint32(st.Size())
}

func (h *hostFile) Close() error {
	return errors.Wrap(h.f.Close(), "close")
}

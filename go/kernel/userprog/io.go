package userprog

import (
	"github.com/lunixbochs/userprog/go/filesys"
	"github.com/lunixbochs/userprog/go/kernel/common"
)

const (
	stdinFd  common.Fd = 0
	stdoutFd common.Fd = 1
)

func (k *Kernel) file(t *common.Task, fd common.Fd) filesys.File {
	return k.proc(t).files[fd]
}

func (k *Kernel) Create(t *common.Task, name string, size common.Len) bool {
	var err error
	k.WithFS(func(fs filesys.Filesystem) {
		err = fs.Create(name, uint32(size))
	})
	if err != nil {
		t.Log.WithError(err).Debug("create failed")
	}
	return err == nil
}

func (k *Kernel) Remove(t *common.Task, name string) bool {
	var err error
	k.WithFS(func(fs filesys.Filesystem) {
		err = fs.Remove(name)
	})
	if err != nil {
		t.Log.WithError(err).Debug("remove failed")
	}
	return err == nil
}

func (k *Kernel) Open(t *common.Task, name string) int32 {
	var f filesys.File
	var err error
	k.WithFS(func(fs filesys.Filesystem) {
		f, err = fs.Open(name)
	})
	if err != nil {
		t.Log.WithError(err).Debug("open failed")
		return -1
	}
	p := k.proc(t)
	fd := p.nextFd
	p.nextFd++
	p.files[fd] = f
	return int32(fd)
}

func (k *Kernel) Filesize(t *common.Task, fd common.Fd) int32 {
	f := k.file(t, fd)
	if f == nil {
		return -1
	}
	var size uint32
	k.WithFS(func(_ filesys.Filesystem) {
		size = f.Length()
	})
	return int32(size)
}

func (k *Kernel) Read(t *common.Task, fd common.Fd, buf common.Obuf, size common.Len) int32 {
	p := make([]byte, size)
	var n int
	switch fd {
	case stdinFd:
		n = k.Console.Read(p)
	case stdoutFd:
		return -1
	default:
		f := k.file(t, fd)
		if f == nil {
			return -1
		}
		var err error
		k.WithFS(func(_ filesys.Filesystem) {
			n, err = f.Read(p)
		})
		if err != nil {
			t.Log.WithError(err).Debug("read failed")
			return -1
		}
	}
	if err := buf.Write(p[:n]); err != nil {
		common.Fault(buf.Addr, err.Error())
	}
	return int32(n)
}

func (k *Kernel) Write(t *common.Task, fd common.Fd, buf common.Buf, size common.Len) int32 {
	var f filesys.File
	switch fd {
	case stdoutFd:
	case stdinFd:
		return -1
	default:
		if f = k.file(t, fd); f == nil {
			return -1
		}
	}
	p, err := buf.Read(size)
	if err != nil {
		common.Fault(buf.Addr, err.Error())
	}
	if fd == stdoutFd {
		k.Console.Write(p)
		return int32(size)
	}
	var n int
	k.WithFS(func(_ filesys.Filesystem) {
		n, err = f.Write(p)
	})
	if err != nil {
		t.Log.WithError(err).Debug("write failed")
		return -1
	}
	return int32(n)
}

func (k *Kernel) Seek(t *common.Task, fd common.Fd, pos common.Off) {
	if f := k.file(t, fd); f != nil {
		k.WithFS(func(_ filesys.Filesystem) {
			f.Seek(uint32(pos))
		})
	}
}

func (k *Kernel) Tell(t *common.Task, fd common.Fd) int32 {
	f := k.file(t, fd)
	if f == nil {
		return -1
	}
	var pos uint32
	k.WithFS(func(_ filesys.Filesystem) {
		pos = f.Tell()
	})
	return int32(pos)
}

func (k *Kernel) Close(t *common.Task, fd common.Fd) {
	p := k.proc(t)
	f := p.files[fd]
	if f == nil {
		return
	}
	delete(p.files, fd)
	k.WithFS(func(_ filesys.Filesystem) {
		f.Close()
	})
}

package filesys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forEachFS(t *testing.T, fn func(t *testing.T, fs Filesystem)) {
	t.Run("memfs", func(t *testing.T) { fn(t, NewMemFS()) })
	t.Run("hostfs", func(t *testing.T) {
		fs, err := NewHostFS(t.TempDir())
		require.NoError(t, err)
		fn(t, fs)
	})
}

func TestCreateOpen(t *testing.T) {
	forEachFS(t, func(t *testing.T, fs Filesystem) {
		require.NoError(t, fs.Create("a", 10))
		assert.ErrorIs(t, fs.Create("a", 1), ErrExists)
		assert.ErrorIs(t, fs.Create("", 1), ErrBadName)
		assert.ErrorIs(t, fs.Create("fifteen-chars-x", 1), ErrNameTooLong)
		require.NoError(t, fs.Create("fourteen-chars", 0))

		f, err := fs.Open("a")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, uint32(10), f.Length())
		buf := make([]byte, 20)
		n, err := f.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, 10, n)
		assert.Equal(t, make([]byte, 10), buf[:n])

		_, err = fs.Open("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestWriteNoGrow(t *testing.T) {
	forEachFS(t, func(t *testing.T, fs Filesystem) {
		require.NoError(t, fs.Create("f", 4))
		f, err := fs.Open("f")
		require.NoError(t, err)
		defer f.Close()
		n, err := f.Write([]byte("abcdef"))
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, uint32(4), f.Tell())
		n, err = f.Write([]byte("x"))
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		f.Seek(1)
		buf := make([]byte, 8)
		n, _ = f.Read(buf)
		assert.Equal(t, "bcd", string(buf[:n]))
		f.Seek(100)
		n, _ = f.Read(buf)
		assert.Equal(t, 0, n)
		assert.Equal(t, uint32(4), f.Length())
	})
}

func TestIndependentHandles(t *testing.T) {
	forEachFS(t, func(t *testing.T, fs Filesystem) {
		require.NoError(t, fs.Create("f", 3))
		a, err := fs.Open("f")
		require.NoError(t, err)
		b, err := fs.Open("f")
		require.NoError(t, err)
		a.Write([]byte("xyz"))
		buf := make([]byte, 3)
		n, _ := b.Read(buf)
		assert.Equal(t, "xyz", string(buf[:n]))
		assert.Equal(t, uint32(3), a.Tell())
		a.Close()
		b.Close()
	})
}

func TestRemove(t *testing.T) {
	forEachFS(t, func(t *testing.T, fs Filesystem) {
		require.NoError(t, fs.Create("f", 2))
		f, err := fs.Open("f")
		require.NoError(t, err)
		require.NoError(t, fs.Remove("f"))
		assert.ErrorIs(t, fs.Remove("f"), ErrNotFound)
		_, err = fs.Open("f")
		assert.ErrorIs(t, err, ErrNotFound)

		// still usable through the open handle
		n, err := f.Write([]byte("hi"))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.NoError(t, f.Close())

		require.NoError(t, fs.Create("f", 0), "name is free again")
	})
}

func TestList(t *testing.T) {
	forEachFS(t, func(t *testing.T, fs Filesystem) {
		require.NoError(t, fs.Create("b", 2))
		require.NoError(t, fs.Create("a", 1))
		require.NoError(t, fs.Create("c", 0))
		got, err := fs.List()
		require.NoError(t, err)
		want := []Entry{{"a", 1}, {"b", 2}, {"c", 0}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("List() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestHostFSJail(t *testing.T) {
	fs, err := NewHostFS(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, fs.Create("../x", 1), ErrBadName)
	assert.ErrorIs(t, fs.Create("..", 1), ErrBadName)
	_, err = fs.Open("../etc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.Remove("/x"), ErrNotFound)
}

func TestHostFSSymlink(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))
	root := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	fs, err := NewHostFS(root)
	require.NoError(t, err)
	_, err = fs.Open("link")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.Create("link", 1), ErrExists)
	ents, err := fs.List()
	require.NoError(t, err)
	assert.Empty(t, ents)

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(data))
}

func TestMemFSClosed(t *testing.T) {
	fs := NewMemFS()
	require.NoError(t, fs.Create("f", 1))
	f, err := fs.Open("f")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	_, err = f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrClosed)
}

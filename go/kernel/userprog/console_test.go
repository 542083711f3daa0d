package userprog

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type chunkRecorder struct {
	sizes []int
	data  strings.Builder
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return c.data.Write(p)
}

func TestConsoleChunks(t *testing.T) {
	rec := &chunkRecorder{}
	c := NewConsole(rec, strings.NewReader(""), 4)
	n, err := c.Write([]byte("0123456789"))
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []int{4, 4, 2}, rec.sizes)
	assert.Equal(t, "0123456789", rec.data.String())
	assert.Equal(t, uint64(10), c.Written())

	c.PowerOff()
	n, _ = c.Write([]byte("lost"))
	assert.Equal(t, 4, n)
	assert.Equal(t, "0123456789", rec.data.String())
}

func TestConsoleRead(t *testing.T) {
	c := NewConsole(&chunkRecorder{}, strings.NewReader("abc"), 0)
	p := make([]byte, 8)
	assert.Equal(t, 0, c.Read(p[:0]))
	assert.Equal(t, 3, c.Read(p))
	assert.Equal(t, "abc", string(p[:3]))
	assert.Equal(t, 0, c.Read(p))
}

func TestConsoleReadPowerOff(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	c := NewConsole(&chunkRecorder{}, r, 0)
	done := make(chan int)
	go func() { done <- c.Read(make([]byte, 8)) }()
	c.PowerOff()
	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(5 * time.Second):
		t.Fatal("Read still blocked after power off")
	}
	assert.Equal(t, 0, c.Read(make([]byte, 8)))
	c.PowerOff()
}

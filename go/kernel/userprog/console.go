package userprog

import (
	"io"
	"sync"
	"sync/atomic"
)

// Console is shared by every process. Output is written in chunks so one
// large write cannot hold the console for its whole length.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	chunk int

	// input is pumped by one goroutine so readers can give up at power off
	in       io.Reader
	inOnce   sync.Once
	inMu     sync.Mutex
	inCh     chan []byte
	inBuf    []byte
	powerOff chan struct{}

	off     atomic.Bool
	written atomic.Uint64
}

func NewConsole(out io.Writer, in io.Reader, chunk int) *Console {
	if chunk <= 0 {
		chunk = 256
	}
	return &Console{
		out:      out,
		in:       in,
		chunk:    chunk,
		inCh:     make(chan []byte),
		powerOff: make(chan struct{}),
	}
}

func (c *Console) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := len(p)
		if n > c.chunk {
			n = c.chunk
		}
		c.mu.Lock()
		if !c.off.Load() {
			c.out.Write(p[:n])
			c.written.Add(uint64(n))
		}
		c.mu.Unlock()
		p = p[n:]
	}
	return total, nil
}

func (c *Console) pump() {
	defer close(c.inCh)
	for {
		buf := make([]byte, 512)
		n, err := c.in.Read(buf)
		if n > 0 {
			select {
			case c.inCh <- buf[:n]:
			case <-c.powerOff:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Read returns whatever input is available, blocking for at least one byte.
// It returns 0 at end of input and once the console is powered off.
func (c *Console) Read(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	c.inMu.Lock()
	defer c.inMu.Unlock()
	if len(c.inBuf) == 0 {
		if c.off.Load() {
			return 0
		}
		c.inOnce.Do(func() { go c.pump() })
		select {
		case buf, ok := <-c.inCh:
			if !ok {
				return 0
			}
			c.inBuf = buf
		case <-c.powerOff:
			return 0
		}
	}
	n := copy(p, c.inBuf)
	c.inBuf = c.inBuf[n:]
	return n
}

func (c *Console) PowerOff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.off.CompareAndSwap(false, true) {
		close(c.powerOff)
	}
}

func (c *Console) Written() uint64 {
	return c.written.Load()
}

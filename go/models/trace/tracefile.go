// Package trace records dispatched syscalls to a compressed trace file.
package trace

import (
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

var TRACE_MAGIC = "UPTR"

const TRACE_VERSION = 1

type TraceHeader struct {
	// MAGIC ("UPTR")
	Magic string `struc:"[4]byte" json:"-"`
	// file format version
	Version uint32 `json:"version"`
	// command line of the first program. Right-null-padded.
	Cmdline string `struc:"[64]byte" json:"cmdline"`
	// kernel string limit in effect while tracing
	MaxStr uint32 `json:"max_str"`
}

// Record is one dispatched syscall. Returned is 0 when the call did not
// return (exit, halt, or a fault inside the handler).
type Record struct {
	Pid      int32
	Num      int32
	Returned uint8
	Ret      uint32
	ArgCount int      `struc:"uint8,sizeof=Args"`
	Args     []uint32 `struc:"[]uint32"`
	DescLen  int      `struc:"uint16,sizeof=Desc"`
	Desc     string
}

type TraceWriter struct {
	mu    sync.Mutex
	w, zw io.WriteCloser
	count int
}

func NewWriter(w io.WriteCloser, cmdline string, maxStr int) (*TraceWriter, error) {
	if len(cmdline) > 64 {
		cmdline = cmdline[:64]
	}
	header := &TraceHeader{
		Magic:   TRACE_MAGIC,
		Version: TRACE_VERSION,
		Cmdline: cmdline,
		MaxStr:  uint32(maxStr),
	}
	if err := struc.Pack(w, header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	zw := snappy.NewBufferedWriter(w)
	return &TraceWriter{w: w, zw: zw}, nil
}

// Pack appends a record. Safe for use by every process thread at once.
func (t *TraceWriter) Pack(rec *Record) error {
	if len(rec.Desc) > 0xffff {
		rec.Desc = rec.Desc[:0xffff]
	}
	rec.ArgCount = len(rec.Args)
	rec.DescLen = len(rec.Desc)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	return errors.Wrap(struc.Pack(t.zw, rec), "failed to pack record")
}

func (t *TraceWriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *TraceWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.zw.Close(); err != nil {
		t.w.Close()
		return errors.Wrap(err, "failed to flush trace")
	}
	return t.w.Close()
}

type TraceReader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	Header TraceHeader
}

func NewReader(r io.ReadCloser) (*TraceReader, error) {
	t := &TraceReader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != TRACE_VERSION {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	t.Header.Cmdline = strings.TrimRight(t.Header.Cmdline, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns the next record, or io.EOF after the last one.
func (t *TraceReader) Next() (*Record, error) {
	rec := &Record{}
	if err := struc.Unpack(t.zr, rec); err != nil {
		if errors.Cause(err) == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "failed to unpack record")
	}
	return rec, nil
}

func (t *TraceReader) Close() {
	t.zr.Reset(nil)
	t.r.Close()
}

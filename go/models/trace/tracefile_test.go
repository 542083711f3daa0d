package trace

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestTraceFile(t *testing.T) {
	buf := nopCloser{&bytes.Buffer{}}
	w, err := NewWriter(buf, "echo hi", 4096)
	require.NoError(t, err)
	recs := []*Record{
		{Pid: 1, Num: 9, Returned: 1, Ret: 3, Args: []uint32{1, 0xbfffffe0, 3}, Desc: `write(1, "hi\x0a", 3) = 3`},
		{Pid: 1, Num: 1, Args: []uint32{0}, Desc: "exit(0) = ?"},
	}
	for _, rec := range recs {
		require.NoError(t, w.Pack(rec))
	}
	assert.Equal(t, 2, w.Count())
	require.NoError(t, w.Close())

	r, err := NewReader(nopCloser{bytes.NewBuffer(buf.Bytes())})
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "echo hi", r.Header.Cmdline)
	assert.Equal(t, uint32(4096), r.Header.MaxStr)
	var got []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	// sizeof fields are filled in by Pack
	if diff := cmp.Diff(recs, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestBadMagic(t *testing.T) {
	_, err := NewReader(nopCloser{bytes.NewBufferString("NOPE\x01\x00\x00\x00")})
	assert.Error(t, err)
}

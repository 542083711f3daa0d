package models

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExitLine(t *testing.T) {
	if s := ExitLine("echo", 3, 0, false); s != "[3] echo exited 0" {
		t.Errorf("plain ExitLine = %q", s)
	}
	s := ExitLine("bad-ptr", 4, FaultStatus, true)
	if !strings.Contains(s, "bad-ptr exited") || !strings.Contains(s, chFault+"-1") {
		t.Errorf("colored ExitLine = %q", s)
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		in      string
		strsize int
		want    string
	}{
		{"hi\n", 0, `"hi\x0a"`},
		{"abcdefghijklmnop", 8, `"abcde"...`},
		{"abcdefgh", 8, `"abcdefgh"`},
		{"hello", 1, `""...`},
		{"hello", 2, `""...`},
		{"hello", 3, `""...`},
		{"hello", 4, `"h"...`},
		{"ab\n\ncd", 6, `"ab"...`},
		{"", 1, `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Repr([]byte(tt.in), tt.strsize), "Repr(%q, %d)", tt.in, tt.strsize)
	}
}

func TestReprLarge(t *testing.T) {
	p := bytes.Repeat([]byte{0, 'a'}, 1<<20)
	start := time.Now()
	s := Repr(p, 30)
	assert.Less(t, time.Since(start), time.Second)
	assert.LessOrEqual(t, len(s), 30+5)
	assert.True(t, strings.HasSuffix(s, `"...`))
	assert.Len(t, Repr(bytes.Repeat([]byte{'a'}, 1<<16), 0), 1<<16+2)
}

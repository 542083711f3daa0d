package models

import (
	"fmt"
	"strings"
)

// Repr quotes p for trace output, escaping non-printable bytes. A positive
// strsize caps the escaped text: anything longer is cut to at most
// strsize-3 characters, never inside an escape, and marked with "...".
func Repr(p []byte, strsize int) string {
	var out strings.Builder
	limit := max(strsize-3, 0)
	cut := 0
	for _, b := range p {
		if b >= 0x20 && b <= 0x7e {
			out.WriteByte(b)
		} else {
			fmt.Fprintf(&out, "\\x%02x", b)
		}
		if strsize > 0 {
			if out.Len() <= limit {
				cut = out.Len()
			}
			if out.Len() > strsize {
				return "\"" + out.String()[:cut] + "\"..."
			}
		}
	}
	return "\"" + out.String() + "\""
}

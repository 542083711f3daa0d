package common

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/lunixbochs/userprog/go/models"
)

func hex(a interface{}) string {
	tmp := fmt.Sprintf("0x%x", a)
	if strings.HasPrefix(tmp, "0x-") {
		tmp = "-0x" + tmp[3:]
	}
	return tmp
}

// peek reads user memory for display only; it never faults.
func (t *Task) peek(addr, size uint64) ([]byte, bool) {
	if !t.Valid.IsValid(addr, size) {
		return nil, false
	}
	p := make([]byte, size)
	if err := t.Mem.MemReadInto(p, addr); err != nil {
		return nil, false
	}
	return p, true
}

func (sys *Syscall) traceArg(t *Task, i int, args []uint64, strsize int) string {
	arg := args[i]
	switch typ := sys.In[i]; {
	case typ == BufType:
		if i+1 < len(sys.In) && sys.In[i+1] == LenType {
			if mem, ok := t.peek(arg, uint64(uint32(args[i+1]))); ok {
				return models.Repr(mem, strsize)
			}
		}
		return hex(arg)
	case typ == ObufType:
		return hex(arg)
	case typ.Kind() == reflect.String:
		// a bad string is shown as its address
		if s, err := t.Valid.ReadStr(arg); err == nil {
			return models.Repr([]byte(s), strsize)
		}
		return hex(arg)
	case typ == LenType:
		return fmt.Sprintf("%d", uint32(arg))
	default:
		return fmt.Sprintf("%d", int32(uint32(arg)))
	}
}

func (sys *Syscall) Trace(t *Task, args []uint64, strsize int) string {
	out := make([]string, len(sys.In))
	for i := range sys.In {
		out[i] = sys.traceArg(t, i, args, strsize)
	}
	return fmt.Sprintf("%s(%s)", sys.Name, strings.Join(out, ", "))
}

func (sys *Syscall) TraceRet(t *Task, args []uint64, ret uint64, strsize int) string {
	var out []string
	for i, typ := range sys.In {
		if typ == ObufType && i+1 < len(args) {
			length := int32(uint32(ret))
			if length >= 0 && uint64(length) <= args[i+1] {
				if mem, ok := t.peek(args[i], uint64(length)); ok {
					out = append(out, models.Repr(mem, strsize))
				}
			}
		}
	}
	if len(sys.Out) > 0 {
		out = append(out, fmt.Sprintf("%d", int32(uint32(ret))))
	}
	if len(out) > 0 {
		return " = " + strings.Join(out, ", ")
	}
	return ""
}

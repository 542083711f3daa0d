package common

import (
	"fmt"
	"reflect"
)

// Syscall is one entry of the dispatch table.
type Syscall struct {
	Num      int
	Name     string
	Instance reflect.Value
	Method   reflect.Method
	In       []reflect.Type
	Out      []reflect.Type
}

func (sys *Syscall) Arity() int {
	return len(sys.In)
}

// checkBufs validates every pointee before the handler runs. A Buf or Obuf
// followed by a Len covers addr:addr+len; a lone buffer covers one byte.
func (sys *Syscall) checkBufs(t *Task, args []uint64) {
	for i, typ := range sys.In {
		if typ.Kind() == reflect.String {
			if _, err := t.Valid.ReadStr(args[i]); err != nil {
				faultFrom(err)
			}
			continue
		}
		if typ != BufType && typ != ObufType {
			continue
		}
		length := uint64(1)
		if i+1 < len(sys.In) && sys.In[i+1] == LenType {
			length = uint64(uint32(args[i+1]))
		}
		if err := t.Valid.CheckRange(args[i], length, typ == ObufType); err != nil {
			faultFrom(err)
		}
	}
}

// Call a syscall from the dispatch table. Faults on bad arguments; panics on
// a broken handler signature.
func (sys *Syscall) Call(t *Task, args []uint64) uint64 {
	if len(args) < len(sys.In) {
		panic(fmt.Errorf("Not enough arguments to syscall '%s'. Wanted %d, got %d.", sys.Name, len(sys.In), len(args)))
	}
	sys.checkBufs(t, args)
	converted, err := t.Argjoy.Convert(sys.In, false, args[:len(sys.In)])
	if err != nil {
		faultFrom(err)
	}
	in := make([]reflect.Value, 0, len(converted)+2)
	in = append(in, sys.Instance, reflect.ValueOf(t))
	in = append(in, converted...)
	out := sys.Method.Func.Call(in)
	if len(out) == 0 {
		return 0
	}
	switch v := out[0]; v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	}
	return 0
}

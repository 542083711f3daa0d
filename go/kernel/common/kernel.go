package common

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/userprog/go/models"
	"github.com/lunixbochs/userprog/go/syscalls"
)

// Hook observes every dispatched syscall. ret is meaningless unless returned
// is set; exit, halt and faults never return.
type Hook func(t *Task, sys *Syscall, args []uint64, ret uint64, returned bool)

type KernelBase struct {
	Table   [syscalls.NumSyscalls]*Syscall
	Log     *logrus.Entry
	Strace  bool
	Strsize int
	Hooks   []Hook
}

func (k *KernelBase) UserprogKernel() *KernelBase {
	return k
}

type Kernel interface {
	UserprogKernel() *KernelBase
}

func camelToSnakeCase(name string) string {
	var words []string
	last := 0
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				words = append(words, name[last:i])
			}
			last = i
		}
	}
	words = append(words, name[last:])
	return strings.ToLower(strings.Join(words, "_"))
}

// Init fills the dispatch table from the kernel's methods. A method is a
// syscall handler when its snake_case name is in the numbering table and
// its first parameter is *Task.
func Init(kf Kernel) {
	k := kf.UserprogKernel()
	if k.Log == nil {
		k.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	instance := reflect.ValueOf(kf)
	typ := instance.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		name := camelToSnakeCase(method.Name)
		num, ok := syscalls.Num(name)
		if !ok {
			continue
		}
		if method.Type.NumIn() < 2 || method.Type.In(1) != TaskType {
			continue
		}
		in := make([]reflect.Type, method.Type.NumIn()-2)
		for j := 2; j < method.Type.NumIn(); j++ {
			in[j-2] = method.Type.In(j)
		}
		out := make([]reflect.Type, method.Type.NumOut())
		for j := range out {
			out[j] = method.Type.Out(j)
		}
		k.Table[num] = &Syscall{
			Num:      num,
			Name:     name,
			Instance: instance,
			Method:   method,
			In:       in,
			Out:      out,
		}
	}
}

// Lookup returns the handler for num, or nil for unknown and unimplemented numbers.
func (k *KernelBase) Lookup(num int) *Syscall {
	if num < 0 || num >= len(k.Table) {
		return nil
	}
	return k.Table[num]
}

// Dispatch is the single syscall entry point. It either stores the handler's
// result in f.Eax and returns, or unwinds the calling thread (exit, halt,
// fault).
func (k *KernelBase) Dispatch(t *Task, f *models.TrapFrame) {
	num := SyscallNum(t, f)
	sys := k.Lookup(num)
	if sys == nil {
		Fault(uint64(f.Esp), "unknown syscall "+strconv.Itoa(num))
	}
	args := StackArgs(t, f)(sys.Arity())
	returned := false
	var ret uint64
	defer func() {
		if k.Strace {
			if returned {
				t.Log.Debug(sys.Trace(t, args, k.Strsize) + sys.TraceRet(t, args, ret, k.Strsize))
			} else {
				t.Log.Debug(sys.Trace(t, args, k.Strsize) + " = ?")
			}
		}
		for _, hook := range k.Hooks {
			hook(t, sys, args, ret, returned)
		}
	}()
	ret = sys.Call(t, args)
	returned = true
	f.Eax = uint32(ret)
}

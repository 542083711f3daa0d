package common

import (
	"github.com/lunixbochs/argjoy"
)

func (t *Task) argCodec(arg interface{}, vals []interface{}) error {
	if reg, ok := vals[0].(uint64); ok {
		switch v := arg.(type) {
		case *Buf:
			*v = NewBuf(t, reg)
		case *Obuf:
			*v = Obuf{NewBuf(t, reg)}
		case *Len:
			*v = Len(uint32(reg))
		case *Off:
			*v = Off(uint32(reg))
		case *Fd:
			*v = Fd(int32(uint32(reg)))
		case *Pid:
			*v = Pid(int32(uint32(reg)))
		case *Ptr:
			*v = Ptr(reg)
		case *int32:
			*v = int32(uint32(reg))
		case *string:
			s, err := t.Valid.ReadStr(reg)
			if err != nil {
				return err
			}
			*v = s
		default:
			return argjoy.NoMatch
		}
		return nil
	}
	return argjoy.NoMatch
}

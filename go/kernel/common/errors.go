package common

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/userprog/go/models"
)

var UnknownArgType = errors.New("syscall argument type not supported")

// Fault is the fault-termination path. It never returns: the panic unwinds
// the calling process thread, which exits with models.FaultStatus.
func Fault(addr uint64, reason string) {
	panic(&models.Fault{Addr: addr, Reason: reason})
}

// faultFrom turns a validation error into a fault.
func faultFrom(err error) {
	if f, ok := errors.Cause(err).(*models.Fault); ok {
		panic(f)
	}
	panic(&models.Fault{Reason: err.Error()})
}

// Package progs holds the built-in user programs.
package progs

import (
	"github.com/lunixbochs/userprog/go/loader"
	"github.com/lunixbochs/userprog/go/user"
)

var programs = map[string]user.Main{}

func register(name string, main user.Main) {
	programs[name] = main
}

// Register adds every built-in program to r.
func Register(r *loader.Registry) {
	for name, main := range programs {
		r.Register(name, user.Program(main))
	}
}

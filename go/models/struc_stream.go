package models

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"
)

type ByteOrder = binary.ByteOrder

type StrucStream struct {
	Stream io.ReadWriter
	Order  binary.ByteOrder
}

func (s *StrucStream) Pack(i interface{}) error {
	return struc.PackWithOptions(s.Stream, i, &struc.Options{Order: s.Order})
}

func (s *StrucStream) Unpack(i interface{}) error {
	return struc.UnpackWithOptions(s.Stream, i, &struc.Options{Order: s.Order})
}

package models

type MemIO interface {
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error
}

type MemReader struct {
	M    MemIO
	Addr uint64
}

func (m *MemReader) Read(p []byte) (int, error) {
	err := m.M.MemReadInto(p, m.Addr)
	if err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}

type MemWriter struct {
	M    MemIO
	Addr uint64
}

func (m *MemWriter) Write(p []byte) (int, error) {
	err := m.M.MemWrite(m.Addr, p)
	if err != nil {
		return 0, err
	}
	m.Addr += uint64(len(p))
	return len(p), nil
}

type memStream struct {
	MemReader
	MemWriter
}

// StrucAt returns a struc stream reading and writing user memory from addr.
func StrucAt(m MemIO, addr uint64, order ByteOrder) *StrucStream {
	return &StrucStream{
		Stream: &memStream{MemReader{m, addr}, MemWriter{m, addr}},
		Order:  order,
	}
}

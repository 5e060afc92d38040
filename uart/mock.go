package uart

import (
	"io"
	"time"
)

// MockPort implements Port for testing. Reads drain ReadData and then
// return io.EOF. ChunkSize, if set, caps the bytes returned per Read.
type MockPort struct {
	ReadData      []byte
	WrittenData   []byte
	ReadError     error
	WriteError    error
	CloseError    error
	Closed        bool
	ReadDelay     time.Duration
	ChunkSize     int
	ReadCallCount int
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}
	m.ReadCallCount++
	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}
	if m.ChunkSize > 0 && len(p) > m.ChunkSize {
		p = p[:m.ChunkSize]
	}
	n = copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}

// NewMockStream creates a Stream backed by a MockPort preloaded with data.
func NewMockStream(data []byte) (*Stream, *MockPort) {
	port := &MockPort{ReadData: data}
	return NewStream(port), port
}

// Package uart provides the byte-stream transport: a serial port read in
// whole buffers, with context cancellation checked between port reads.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/mklimuk/luna"
)

// DefaultBaudRate is the TF-Luna factory UART speed.
const DefaultBaudRate = 115200

// pollInterval bounds how long a blocked read goes without checking ctx.
const pollInterval = 100 * time.Millisecond

var ErrClosed = errors.New("uart: stream closed")

// Port is the minimal serial port surface the stream needs. A Read that
// returns 0 bytes and no error is treated as a read timeout.
type Port interface {
	io.ReadWriteCloser
}

var _ luna.BusReader = &Stream{}
var _ luna.BusWriter = &Stream{}

type Stream struct {
	mx     sync.Mutex
	port   Port
	closed atomic.Bool
}

// Open opens a serial device in 8N1 mode at the given baud rate (0 selects
// DefaultBaudRate).
func Open(path string, baud int) (*Stream, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", path, err)
	}
	err = port.SetReadTimeout(pollInterval)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not set read timeout on %s: %w", path, err)
	}
	err = port.ResetInputBuffer()
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not flush input of %s: %w", path, err)
	}
	return NewStream(port), nil
}

func NewStream(port Port) *Stream {
	return &Stream{port: port}
}

// Read fills buffer completely. End of stream is an error, never a short read.
func (s *Stream) Read(ctx context.Context, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	off := 0
	for off < len(buffer) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("uart: read interrupted after %d of %d bytes: %w", off, len(buffer), err)
		}
		if s.closed.Load() {
			return ErrClosed
		}
		n, err := s.port.Read(buffer[off:])
		off += n
		if off == len(buffer) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("uart: stream ended after %d of %d bytes: %w", off, len(buffer), io.ErrUnexpectedEOF)
		}
		if err != nil {
			return fmt.Errorf("uart: read failed: %w", err)
		}
	}
	return nil
}

func (s *Stream) Write(ctx context.Context, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.port.Write(buffer)
	if err != nil {
		return fmt.Errorf("uart: write failed: %w", err)
	}
	return nil
}

// Close closes the port. A Read blocked on the port returns ErrClosed or the
// port's own error.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.port.Close()
}

// Package tfluna drives the Benewake TF-Luna single-point time-of-flight
// LiDAR over either of its two interfaces: the UART telemetry stream or the
// I2C register bus. The interface is chosen once, at construction.
//
// Typical usage:
//
//	s, err := tfluna.New(tfluna.WithBus(bus))
//	m, err := s.Read(ctx)
//	fmt.Println(m.Distance, m.Temperature())
//
// Calls on one driver are serialized. The driver never opens or closes the
// transport it was given.
package tfluna

import (
	"context"
	"errors"
	"sync"

	"github.com/mklimuk/luna"
)

// Transport identifies the interface a driver is bound to.
type Transport int

const (
	TransportNone Transport = iota
	TransportStream
	TransportBus
)

func (t Transport) String() string {
	switch t {
	case TransportStream:
		return "stream"
	case TransportBus:
		return "bus"
	default:
		return "none"
	}
}

// Rangefinder is implemented by the driver and by MockRangefinder.
type Rangefinder interface {
	Read(ctx context.Context) (Measurement, error)
}

var _ Rangefinder = &TFLuna{}

type Config struct {
	Stream  luna.BusReader
	Bus     luna.I2CBus
	Address byte
	MaxScan int
}

type Option func(*Config)

// WithStream binds the driver to a UART byte stream.
func WithStream(stream luna.BusReader) Option {
	return func(c *Config) {
		c.Stream = stream
	}
}

// WithBus binds the driver to an I2C bus.
func WithBus(bus luna.I2CBus) Option {
	return func(c *Config) {
		c.Bus = bus
	}
}

// WithAddress overrides the I2C address (default 0x10). Ignored on a stream.
func WithAddress(address byte) Option {
	return func(c *Config) {
		c.Address = address
	}
}

// WithMaxScan bounds how many stream bytes a single Read may consume while
// looking for a frame header. Zero, the default, blocks until a header
// arrives or the stream fails.
func WithMaxScan(n int) Option {
	return func(c *Config) {
		c.MaxScan = n
	}
}

// TFLuna is the sensor driver. Its transport never changes after New.
type TFLuna struct {
	mx     sync.Mutex
	kind   Transport
	stream *frameReader
	bus    busTransport
	last   *Measurement
}

// New builds a driver. Supplying both a stream and a bus fails immediately
// with InvalidConfiguration; supplying neither yields an unbound driver whose
// every I/O operation fails with NoTransportBound.
func New(opts ...Option) (*TFLuna, error) {
	config := Config{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.MaxScan < 0 {
		return nil, newError(InvalidConfiguration, "new", errors.New("max scan must not be negative"))
	}
	s := &TFLuna{}
	switch {
	case config.Stream != nil && config.Bus != nil:
		return nil, newError(InvalidConfiguration, "new", errors.New("use only one of stream or bus"))
	case config.Stream != nil:
		s.kind = TransportStream
		s.stream = &frameReader{src: config.Stream, maxScan: config.MaxScan}
	case config.Bus != nil:
		s.kind = TransportBus
		s.bus = busTransport{bus: config.Bus, addr: config.Address}
	}
	return s, nil
}

// Transport reports which interface the driver is bound to.
func (s *TFLuna) Transport() Transport {
	return s.kind
}

// Read takes one measurement from the bound transport and caches it. On any
// failure the cached reading is left untouched.
//
// On a stream Read may block while hunting for a frame header unless a bound
// was set with WithMaxScan. A checksum failure is reported as is; the caller
// decides whether to read again.
func (s *TFLuna) Read(ctx context.Context) (Measurement, error) {
	const op = "read"
	s.mx.Lock()
	defer s.mx.Unlock()
	var m Measurement
	switch s.kind {
	case TransportStream:
		frame, err := s.stream.next(ctx, op)
		if err != nil {
			return Measurement{}, err
		}
		m = frame.Measurement()
	case TransportBus:
		var err error
		m, err = s.bus.measure(ctx)
		if err != nil {
			return Measurement{}, newError(TransportFailure, op, err)
		}
	default:
		return Measurement{}, newError(NoTransportBound, op, nil)
	}
	s.last = &m
	return m, nil
}

// Last returns the most recent successful reading.
func (s *TFLuna) Last() (Measurement, bool) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.last == nil {
		return Measurement{}, false
	}
	return *s.last, true
}

// Distance returns the last distance in centimeters.
func (s *TFLuna) Distance() (uint16, bool) {
	m, ok := s.Last()
	return m.Distance, ok
}

// SignalStrength returns the last signal strength in device units.
func (s *TFLuna) SignalStrength() (uint16, bool) {
	m, ok := s.Last()
	return m.Strength, ok
}

// Temperature returns the last chip temperature in degrees Celsius.
func (s *TFLuna) Temperature() (float64, bool) {
	m, ok := s.Last()
	if !ok {
		return 0, false
	}
	return m.Temperature(), true
}

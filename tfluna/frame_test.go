package tfluna

import (
	"context"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/luna/uart"
)

func streamDriver(t *testing.T, data []byte, opts ...Option) (*TFLuna, *uart.MockPort) {
	t.Helper()
	stream, port := uart.NewMockStream(data)
	s, err := New(append([]Option{WithStream(stream)}, opts...)...)
	require.NoError(t, err)
	return s, port
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func frameBytes(m Measurement) []byte {
	f := EncodeFrame(m)
	return f[:]
}

func TestFrame_Decode(t *testing.T) {
	tests := []struct {
		given    []byte
		expected Measurement
	}{
		{[]byte{0x59, 0x59, 0x7B, 0x00, 0xC8, 0x01, 0x00, 0x08, 0x00}, Measurement{Distance: 123, Strength: 456, TemperatureRaw: 2048}},
		{[]byte{0x59, 0x59, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, Measurement{}},
		{[]byte{0x59, 0x59, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}, Measurement{Distance: 0xFFFF, Strength: 0xFFFF, TemperatureRaw: 0xFFFF}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			var f Frame
			copy(f[:], test.given)
			f[8] = f.Checksum()
			assert.True(t, f.Verify())
			assert.Equal(t, test.expected, f.Measurement())
		})
	}
}

func TestFrame_ChecksumWraps(t *testing.T) {
	// 0x59+0x59+0x7B+0x00+0xC8+0x01+0x00+0x08 = 0x1FE
	f := Frame{0x59, 0x59, 0x7B, 0x00, 0xC8, 0x01, 0x00, 0x08}
	assert.Equal(t, byte(0xFE), f.Checksum())
}

func TestFrame_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		var f Frame
		f[0], f[1] = frameHeader, frameHeader
		for j := 2; j < 8; j++ {
			f[j] = byte(rng.Intn(256))
		}
		f[8] = f.Checksum()

		s, _ := streamDriver(t, f[:])
		m, err := s.Read(context.Background())
		require.NoError(t, err, "frame %x", f)
		assert.Equal(t, uint16(f[2])|uint16(f[3])<<8, m.Distance)
		assert.Equal(t, uint16(f[4])|uint16(f[5])<<8, m.Strength)
		assert.Equal(t, uint16(f[6])|uint16(f[7])<<8, m.TemperatureRaw)
	}
}

func TestFrame_SingleBitCorruptionFailsVerify(t *testing.T) {
	valid := EncodeFrame(Measurement{Distance: 321, Strength: 1000, TemperatureRaw: 2400})
	for i := 0; i < FrameSize-1; i++ {
		for bit := 0; bit < 8; bit++ {
			f := valid
			f[i] ^= 1 << bit
			assert.False(t, f.Verify(), "byte %d bit %d", i, bit)
		}
	}
}

func TestRead_StreamChecksumMismatchKeepsState(t *testing.T) {
	first := Measurement{Distance: 50, Strength: 300, TemperatureRaw: 2100}
	valid := EncodeFrame(Measurement{Distance: 321, Strength: 1000, TemperatureRaw: 2400})
	// corrupting bytes 2-7 leaves the header intact, so the frame is found
	for i := 2; i < FrameSize-1; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := valid
			corrupted[i] ^= 1 << bit
			s, _ := streamDriver(t, concat(frameBytes(first), corrupted[:]))

			_, err := s.Read(context.Background())
			require.NoError(t, err)

			_, err = s.Read(context.Background())
			require.ErrorIs(t, err, ErrChecksumMismatch, "byte %d bit %d", i, bit)
			last, ok := s.Last()
			assert.True(t, ok)
			assert.Equal(t, first, last)
		}
	}
}

func TestRead_StreamChecksumMismatchBeforeFirstRead(t *testing.T) {
	f := EncodeFrame(Measurement{Distance: 10})
	f[8]++
	s, _ := streamDriver(t, f[:])
	_, err := s.Read(context.Background())
	assert.Equal(t, ChecksumMismatch, KindOf(err))
	_, ok := s.Distance()
	assert.False(t, ok)
	_, ok = s.SignalStrength()
	assert.False(t, ok)
	_, ok = s.Temperature()
	assert.False(t, ok)
}

func TestRead_StreamResynchronizes(t *testing.T) {
	want := Measurement{Distance: 77, Strength: 512, TemperatureRaw: 2048}
	tests := []struct {
		name  string
		noise []byte
	}{
		{"no noise", nil},
		{"junk", []byte{0x00, 0x13, 0xFE}},
		{"false sync", []byte{0x59, 0x42}},
		{"false sync then near miss", []byte{0x59, 0x10, 0x58}},
		{"repeated false syncs", []byte{0x59, 0x00, 0x59, 0x01, 0x59, 0x58}},
		{"tail of previous frame", []byte{0x00, 0x08, 0x3C}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _ := streamDriver(t, concat(test.noise, frameBytes(want)))
			m, err := s.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, m)
		})
	}
}

func TestRead_StreamConsecutiveFrames(t *testing.T) {
	a := Measurement{Distance: 1, Strength: 2, TemperatureRaw: 3}
	b := Measurement{Distance: 0x5959, Strength: 0x5959, TemperatureRaw: 0x5959}
	s, _ := streamDriver(t, concat(frameBytes(a), frameBytes(b)))
	m, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, m)
	m, err = s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b, m)
}

func TestRead_StreamEndIsTransportFailure(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"only noise", []byte{0x01, 0x02, 0x59}},
		{"truncated frame", []byte{0x59, 0x59, 0x7B, 0x00}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, _ := streamDriver(t, test.data)
			_, err := s.Read(context.Background())
			assert.ErrorIs(t, err, ErrTransportFailure)
			_, ok := s.Last()
			assert.False(t, ok)
		})
	}
}

func TestRead_StreamMaxScan(t *testing.T) {
	want := Measurement{Distance: 200}
	noise := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	s, port := streamDriver(t, concat(noise, frameBytes(want)), WithMaxScan(4))
	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, ErrSyncNotFound)
	assert.Equal(t, 4, port.ReadCallCount)
	_, ok := s.Last()
	assert.False(t, ok)

	// the bound applies per call; the next call finds the header
	m, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestRead_StreamMaxScanAllowsImmediateHeader(t *testing.T) {
	want := Measurement{Distance: 9}
	s, _ := streamDriver(t, frameBytes(want), WithMaxScan(2))
	m, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestSyncState_Advance(t *testing.T) {
	assert.Equal(t, seekingSecondSync, seekingFirstSync.advance(0x59))
	assert.Equal(t, seekingFirstSync, seekingFirstSync.advance(0x00))
	assert.Equal(t, synced, seekingSecondSync.advance(0x59))
	assert.Equal(t, seekingFirstSync, seekingSecondSync.advance(0x58))
}

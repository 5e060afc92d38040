package tfluna

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/mklimuk/luna"
	"github.com/mklimuk/luna/snsctx"
)

// FrameSize is the length of a streamed measurement frame:
//
//	[0x59][0x59][distL][distH][ampL][ampH][tempL][tempH][checksum]
const FrameSize = 9

const frameHeader byte = 0x59

// Frame is a raw streamed measurement frame.
type Frame [FrameSize]byte

// Checksum returns the low byte of the sum of the first eight bytes.
func (f Frame) Checksum() byte {
	var sum byte
	for _, b := range f[:FrameSize-1] {
		sum += b
	}
	return sum
}

// Verify reports whether the trailing checksum byte matches the content.
func (f Frame) Verify() bool {
	return f.Checksum() == f[FrameSize-1]
}

// Measurement decodes the little-endian payload fields. It does not verify
// the checksum.
func (f Frame) Measurement() Measurement {
	return Measurement{
		Distance:       binary.LittleEndian.Uint16(f[2:4]),
		Strength:       binary.LittleEndian.Uint16(f[4:6]),
		TemperatureRaw: binary.LittleEndian.Uint16(f[6:8]),
	}
}

// EncodeFrame builds a valid frame carrying m.
func EncodeFrame(m Measurement) Frame {
	var f Frame
	f[0], f[1] = frameHeader, frameHeader
	binary.LittleEndian.PutUint16(f[2:4], m.Distance)
	binary.LittleEndian.PutUint16(f[4:6], m.Strength)
	binary.LittleEndian.PutUint16(f[6:8], m.TemperatureRaw)
	f[8] = f.Checksum()
	return f
}

type syncState int

const (
	seekingFirstSync syncState = iota
	seekingSecondSync
	synced
)

// advance feeds one byte to the header hunt. A non-header byte always drops
// back to seekingFirstSync, so a false start never swallows a real header.
func (s syncState) advance(b byte) syncState {
	if b != frameHeader {
		return seekingFirstSync
	}
	if s == seekingSecondSync {
		return synced
	}
	return seekingSecondSync
}

// frameReader pulls validated frames off an unframed byte stream.
type frameReader struct {
	src luna.BusReader
	// maxScan bounds the bytes consumed while hunting for the header; 0 means
	// unbounded.
	maxScan int
	one     [1]byte
}

func (r *frameReader) next(ctx context.Context, op string) (Frame, error) {
	var frame Frame
	state := seekingFirstSync
	scanned := 0
	for state != synced {
		if r.maxScan > 0 && scanned >= r.maxScan {
			return frame, newError(SyncNotFound, op, fmt.Errorf("no header in %d bytes", scanned))
		}
		if err := r.src.Read(ctx, r.one[:]); err != nil {
			return frame, newError(TransportFailure, op, err)
		}
		scanned++
		state = state.advance(r.one[0])
	}
	if skipped := scanned - 2; skipped > 0 {
		slog.Debug("tfluna: resynchronized frame stream", "skipped", skipped)
	}
	frame[0], frame[1] = frameHeader, frameHeader
	if err := r.src.Read(ctx, frame[2:]); err != nil {
		return frame, newError(TransportFailure, op, err)
	}
	snsctx.Dump(ctx, "tfluna: frame received", frame[:])
	if !frame.Verify() {
		return frame, newError(ChecksumMismatch, op,
			fmt.Errorf("computed %#02x, frame carries %#02x", frame.Checksum(), frame[FrameSize-1]))
	}
	return frame, nil
}

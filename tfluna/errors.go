package tfluna

import (
	"errors"
	"fmt"
)

// ErrorKind classifies driver failures so callers can tell recoverable
// conditions (a garbled frame) from misuse (wrong transport).
type ErrorKind int

const (
	// InvalidConfiguration means conflicting transports were supplied to New.
	InvalidConfiguration ErrorKind = iota + 1
	// NoTransportBound means the driver was built without any transport.
	NoTransportBound
	// UnsupportedOnTransport means a register command was issued on a
	// transport that has no command path.
	UnsupportedOnTransport
	// InvalidArgument means a command input is outside its domain.
	InvalidArgument
	// ChecksumMismatch means a streamed frame failed validation.
	ChecksumMismatch
	// TransportFailure wraps an underlying I/O error or a closed stream.
	TransportFailure
	// SyncNotFound means the scan bound set with WithMaxScan was exhausted
	// before a frame header was found.
	SyncNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidConfiguration:
		return "invalid configuration"
	case NoTransportBound:
		return "no transport bound"
	case UnsupportedOnTransport:
		return "unsupported on transport"
	case InvalidArgument:
		return "invalid argument"
	case ChecksumMismatch:
		return "checksum mismatch"
	case TransportFailure:
		return "transport failure"
	case SyncNotFound:
		return "frame sync not found"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidConfiguration   = &Error{Kind: InvalidConfiguration}
	ErrNoTransportBound       = &Error{Kind: NoTransportBound}
	ErrUnsupportedOnTransport = &Error{Kind: UnsupportedOnTransport}
	ErrInvalidArgument        = &Error{Kind: InvalidArgument}
	ErrChecksumMismatch       = &Error{Kind: ChecksumMismatch}
	ErrTransportFailure       = &Error{Kind: TransportFailure}
	ErrSyncNotFound           = &Error{Kind: SyncNotFound}
)

// Error is returned by every failing driver operation.
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed, e.g. "set_frame_rate".
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := "tfluna: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

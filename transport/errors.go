package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Send and Receive after the transport
	// has disconnected.
	ErrNotConnected = errors.New("transport is not connected")

	// ErrClosed is returned when an operation races with Close.
	ErrClosed = errors.New("transport is closed")
)

// SizeError reports a frame exceeding the configured maximum message size.
// The frame is dropped; the transport remains usable.
type SizeError struct {
	Size int
	Max  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("message size %d exceeds limit %d", e.Size, e.Max)
}

// InvalidMessageError reports a frame that could not be decoded into a valid
// envelope. The frame is dropped; the transport remains usable.
type InvalidMessageError struct {
	Reason string
	Err    error
}

func (e *InvalidMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid message: %s", e.Reason)
}

func (e *InvalidMessageError) Unwrap() error {
	return e.Err
}

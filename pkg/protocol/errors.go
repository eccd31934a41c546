package protocol

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrFrameTooShort   = errors.New("protocol: frame shorter than type code")
	ErrInvalidType     = errors.New("protocol: invalid message type code")
	ErrInvalidPayload  = errors.New("protocol: payload is not valid JSON")
	ErrTypeOutOfRange  = errors.New("protocol: message type out of range")
	ErrConcatTooDeep   = errors.New("protocol: concat frames nested too deep")
	ErrPayloadTooLarge = errors.New("protocol: payload too large")
)

// DecodeError wraps a decode failure with the offending raw frame.
type DecodeError struct {
	Raw string
	Err error
}

// Error returns the error message, truncating long frames.
func (e *DecodeError) Error() string {
	raw := e.Raw
	if len(raw) > 32 {
		raw = raw[:32] + "..."
	}
	return fmt.Sprintf("%v (frame %q)", e.Err, raw)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

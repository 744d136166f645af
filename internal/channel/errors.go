// internal/channel/errors.go
package channel

import (
	"errors"
	"fmt"
	"strconv"
)

// Socket error codes kept per slot and reported by LastError
const (
	CodeNone               = 0
	CodeConnRefused        = -1
	CodeCreateSocketFailed = -2
	CodeOptRefused         = -3
)

// Reply status codes produced by the controller or by the exchange itself
const (
	StatusOK                 = 0
	StatusCommandNotExecuted = -3
	StatusMessageTooLong     = -3
	StatusInvalidChannel     = -22
	StatusTransportError     = -72
	StatusArgumentMismatch   = -98
	StatusUnparsed           = -99
)

var (
	ErrTableFull        = errors.New("no free channel")
	ErrInvalidChannel   = errors.New("invalid channel")
	ErrMessageTooLong   = errors.New("message too long")
	ErrTransport        = errors.New("transport error")
	ErrRetriesExhausted = errors.New("controller did not resynchronize")
)

// Error describes a failed channel operation
type Error struct {
	Op       string
	Channel  int
	Code     int
	Reply    string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s channel %d: %v (code %d", e.Op, e.Channel, e.Err, e.Code)
	if e.Attempts > 0 {
		msg += ", attempts " + strconv.Itoa(e.Attempts)
	}
	return msg + ")"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the numeric code the controller driver reports for err
func Code(err error) int {
	if err == nil {
		return StatusOK
	}

	var chErr *Error
	if errors.As(err, &chErr) {
		return chErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidChannel):
		return StatusInvalidChannel
	case errors.Is(err, ErrMessageTooLong):
		return StatusMessageTooLong
	case errors.Is(err, ErrTransport):
		return StatusTransportError
	default:
		return CodeConnRefused
	}
}

// ErrorText returns the human-readable message for a socket error code
func ErrorText(code int) string {
	switch code {
	case CodeConnRefused:
		return "The attempt to connect was rejected."
	case CodeCreateSocketFailed:
		return "Create Socket failed."
	case CodeOptRefused:
		return "SetSockOption() Refused."
	default:
		return ""
	}
}

package jsonrpc

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidResponse indicates the response body could not be
	// parsed as a JSON object.
	ErrInvalidResponse = errors.Mark(errors.New("Invalid JSON-RPC response"), errProtocolMarker)

	// ErrNoResult indicates a parsed response that carries neither a
	// result field nor a valid error object.
	ErrNoResult = errors.Mark(errors.New("JSON-RPC: no 'result' field"), errProtocolMarker)

	errProtocolMarker  = errors.New("protocol error")
	errTransportMarker = errors.New("transport error")
)

// Error is a protocol-level error object returned by the node.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return "RPC error: " + msg
}

// NewTransportError wraps a failed HTTP exchange. The underlying
// diagnostic is preserved in the message.
func NewTransportError(err error) error {
	return errors.Mark(errors.Wrap(err, "Network error"), errTransportMarker)
}

// NewTransportErrorf builds a transport error from a formatted
// diagnostic, for failures that are not represented by a Go error
// (such as an unexpected HTTP status).
func NewTransportErrorf(format string, args ...interface{}) error {
	return errors.Mark(
		errors.Wrapf(errors.Newf(format, args...), "Network error"),
		errTransportMarker,
	)
}

// IsTransportError reports whether the HTTP exchange itself failed.
func IsTransportError(err error) bool {
	return errors.Is(err, errTransportMarker)
}

// IsProtocolError reports whether the exchange succeeded but the
// payload violated the JSON-RPC contract.
func IsProtocolError(err error) bool {
	if errors.Is(err, errProtocolMarker) {
		return true
	}
	rpcErr := new(Error)
	return errors.As(err, &rpcErr)
}

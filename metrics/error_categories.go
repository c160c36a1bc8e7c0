package metrics

import (
	"github.com/ALaustrup/demiurge/jsonrpc"
	"github.com/cockroachdb/errors"
)

// ErrorCategory is a coarse error class for metric labels.
type ErrorCategory string

const (
	// NoError indicates a successful call.
	NoError ErrorCategory = "none"

	// NetworkError indicates the HTTP exchange itself failed.
	NetworkError ErrorCategory = "network_error"

	// RPCError indicates the node returned an explicit error object.
	RPCError ErrorCategory = "rpc_error"

	// ProtocolError indicates a response that violates the JSON-RPC
	// contract.
	ProtocolError ErrorCategory = "protocol_error"

	// UnknownError indicates an unclassified failure.
	UnknownError ErrorCategory = "unknown_error"
)

// CategorizeError maps an error from a call to its category.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return NoError
	}

	if jsonrpc.IsTransportError(err) {
		return NetworkError
	}

	rpcErr := new(jsonrpc.Error)
	if errors.As(err, &rpcErr) {
		return RPCError
	}

	if jsonrpc.IsProtocolError(err) {
		return ProtocolError
	}

	return UnknownError
}

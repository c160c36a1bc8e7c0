// Package jsonrpc implements the JSON-RPC 2.0 envelope used by the
// Demiurge chain node: request construction, response discrimination
// and result-shape normalization.
package jsonrpc

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Version is the protocol version sent in every request envelope.
const Version = "2.0"

// Well-known JSON-RPC error codes returned by the node.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC request envelope. Params is kept raw so the
// envelope round-trips byte-for-byte regardless of the params shape.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

// NewRequest builds a request envelope for the given method. A nil
// params value is encoded as JSON null so the field is always present
// on the wire.
func NewRequest(id uint64, method string, params interface{}) (*Request, error) {
	if method == "" {
		return nil, errors.New("[DRPC] empty method name")
	}

	raw := json.RawMessage("null")
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(err, "[DRPC] marshal params")
		}
		raw = b
	}

	return &Request{
		JSONRPC: Version,
		Method:  method,
		Params:  raw,
		ID:      id,
	}, nil
}

// Encode returns the compact wire form of the request.
func (r *Request) Encode() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "[DRPC] encode request")
	}
	return b, nil
}

// ParseResult discriminates a raw response body into either a result
// object or a protocol error. wantID is the id of the originating
// request; a response that carries a different id is rejected.
//
// The accepted shapes are {"result": <value>} and
// {"error": {"message": <string>, ...}}. A primitive or array result is
// wrapped as {"value": <result>} so callers always receive an object.
func ParseResult(body []byte, wantID uint64) (json.RawMessage, error) {
	// A bare null unmarshals into a nil map without an error, so the
	// shape has to be checked before decoding.
	if !isObject(body) {
		return nil, ErrInvalidResponse
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, ErrInvalidResponse
	}

	if raw, ok := top["id"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var gotID uint64
		// The id is only checked when it decodes as a number; the node
		// echoes the request id verbatim.
		if err := json.Unmarshal(raw, &gotID); err == nil && gotID != wantID {
			return nil, errors.Mark(
				errors.Newf("JSON-RPC: response id %d does not match request id %d", gotID, wantID),
				errProtocolMarker,
			)
		}
	}

	if raw, ok := top["error"]; ok && isObject(raw) {
		return nil, decodeError(raw)
	}

	result, ok := top["result"]
	if !ok {
		return nil, ErrNoResult
	}

	if isObject(result) {
		return result, nil
	}

	wrapped, err := json.Marshal(map[string]json.RawMessage{"value": result})
	if err != nil {
		return nil, ErrInvalidResponse
	}
	return wrapped, nil
}

// decodeError reads an error object field by field. Fields of the
// wrong type are treated as absent, so a malformed message still
// renders as "Unknown error" instead of failing the parse.
func decodeError(raw json.RawMessage) *Error {
	rpcErr := new(Error)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rpcErr
	}

	var code int
	if err := json.Unmarshal(fields["code"], &code); err == nil {
		rpcErr.Code = code
	}
	var msg string
	if err := json.Unmarshal(fields["message"], &msg); err == nil {
		rpcErr.Message = msg
	}
	return rpcErr
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Package httprpc sends JSON-RPC requests to a Demiurge node over
// HTTP POST and turns responses into results or typed errors.
package httprpc

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source=caller.go -destination=mock/mock_caller.go

// Caller issues a single JSON-RPC call and returns the normalized
// result object. Implementations must deliver exactly one outcome per
// call and must not retry.
type Caller interface {
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	Endpoint() string
	SetEndpoint(endpoint string)
	Close() error
}

package httprpc

import (
	"net/http"
	"time"

	"github.com/ALaustrup/demiurge/compressor"
	"github.com/ALaustrup/demiurge/telemetry"
	"github.com/google/uuid"
)

type clientOptions struct {
	name            string
	timeout         time.Duration
	userAgent       string
	acceptEncodings []compressor.Encoding
	telemetry       *telemetry.Telemetry
	httpClient      *http.Client
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(o *clientOptions)

func newClientOptions(opts ...ClientOption) *clientOptions {
	o := clientOptions{
		name:      uuid.NewString(),
		userAgent: "demiurge-rpc-client",
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &o
}

// WithName sets the client name used in logs and metric labels.
func WithName(name string) ClientOption {
	return func(o *clientOptions) {
		o.name = name
	}
}

// WithTimeout bounds each HTTP exchange. The zero value inherits the
// transport default, which is no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithAcceptEncoding advertises the given content codings to the node
// and transparently decompresses responses that use them.
func WithAcceptEncoding(encodings ...compressor.Encoding) ClientOption {
	return func(o *clientOptions) {
		o.acceptEncodings = encodings
	}
}

// WithTelemetry attaches tracing and metric instruments to every call.
func WithTelemetry(tel *telemetry.Telemetry) ClientOption {
	return func(o *clientOptions) {
		o.telemetry = tel
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ALaustrup/demiurge/compressor"
	"github.com/ALaustrup/demiurge/jsonrpc"
	"github.com/ALaustrup/demiurge/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Client is the HTTP transport for JSON-RPC calls. Request ids are
// generated from an atomic counter and every response is correlated
// against the id of its request, so concurrent calls stay independent.
//
// The endpoint may be swapped at runtime; calls already dispatched keep
// the endpoint they started with.
type Client struct {
	endpoint   string
	endpointMu sync.RWMutex

	httpClient *http.Client
	nextID     *atomic.Uint64
	comp       *compressor.Manager
	tel        *telemetry.Telemetry
	log        *zap.SugaredLogger

	cbMu   sync.RWMutex
	cbList []OnAfterCallCallback

	options *clientOptions
}

// AfterCallEvent describes a completed call, successful or not.
// HTTPStatus is zero when the exchange never produced a response.
type AfterCallEvent struct {
	Method     string
	HTTPStatus int
	Duration   time.Duration
	Err        error
}

// OnAfterCallCallback runs after every call outcome has been decided.
type OnAfterCallCallback func(e *AfterCallEvent)

// NewClient creates a transport client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	o := newClientOptions(opts...)

	tel := o.telemetry
	if tel == nil {
		tel, _ = telemetry.NewNoop()
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: hc,
		nextID:     atomic.NewUint64(0),
		comp:       compressor.NewManager(),
		tel:        tel,
		log:        zap.S().With("module", "demiurge.httprpc"),
		options:    o,
	}
}

// Name returns the configured client name, for metric labels.
func (c *Client) Name() string {
	return c.options.name
}

// Endpoint returns the URL calls are currently sent to.
func (c *Client) Endpoint() string {
	c.endpointMu.RLock()
	defer c.endpointMu.RUnlock()
	return c.endpoint
}

// SetEndpoint redirects future calls to a new URL. In-flight calls are
// unaffected.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpointMu.Lock()
	defer c.endpointMu.Unlock()

	if c.endpoint == endpoint {
		return
	}

	c.log.Infof("Endpoint changed from %s to %s", c.endpoint, endpoint)
	c.endpoint = endpoint
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// OnAfterCall registers a callback to run after each call completes.
func (c *Client) OnAfterCall(cb OnAfterCallCallback) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.cbList = append(c.cbList, cb)
}

// Call sends one JSON-RPC request and returns the normalized result
// object. Failures are terminal: transport faults carry the
// "Network error:" prefix, contract violations come back as protocol
// errors from the jsonrpc package.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (result json.RawMessage, err error) {
	start := time.Now()
	httpStatus := 0

	var span trace.Span
	ctx, span = c.tel.StartSpan(ctx, "Demiurge.Client.Call "+method)
	defer span.End()

	defer func() {
		duration := time.Since(start)
		c.tel.RecordCall(ctx, duration, method, strconv.Itoa(httpStatus), err)
		c.emitAfterCall(&AfterCallEvent{
			Method:     method,
			HTTPStatus: httpStatus,
			Duration:   duration,
			Err:        err,
		})
	}()

	id := c.nextID.Inc()
	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	body, err := req.Encode()
	if err != nil {
		return nil, err
	}

	endpoint := c.Endpoint()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.options.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.options.userAgent)
	}
	if len(c.options.acceptEncodings) > 0 {
		httpReq.Header.Set("Accept-Encoding", compressor.AcceptHeader(c.options.acceptEncodings))
	}

	c.log.Debugf("Call %s id=%d to %s len=%d", method, id, endpoint, len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}
	defer resp.Body.Close()

	httpStatus = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, jsonrpc.NewTransportErrorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}

	enc, err := compressor.FromHeader(resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}
	data, err = c.comp.Decompress(enc, data)
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}

	return jsonrpc.ParseResult(data, id)
}

func (c *Client) emitAfterCall(e *AfterCallEvent) {
	c.cbMu.RLock()
	cbs := make([]OnAfterCallCallback, len(c.cbList))
	copy(cbs, c.cbList)
	c.cbMu.RUnlock()

	for _, cb := range cbs {
		cb(e)
	}
}

var _ Caller = (*Client)(nil)

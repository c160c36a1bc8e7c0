package demiurge

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher turns the Client's synchronous queries into
// fire-and-forget fetches whose outcomes are published to subscribers.
// Fetches are independent goroutines: no queueing, no mutual
// exclusion, completions in any order. There is no cancellation beyond
// the context passed to each fetch, and no retries.
type Dispatcher struct {
	client *Client
	log    *zap.SugaredLogger

	mu      sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// NewDispatcher creates a dispatcher around an existing client.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{
		client: client,
		log:    zap.S().With("module", "demiurge.dispatcher"),
		subs:   make(map[int]func(Event)),
	}
}

// Client returns the wrapped client.
func (d *Dispatcher) Client() *Client {
	return d.client
}

// Subscribe registers a callback for every published event and returns
// a token for Unsubscribe. Callbacks run on the goroutine of the fetch
// that completed.
func (d *Dispatcher) Subscribe(cb func(Event)) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSub
	d.nextSub++
	d.subs[id] = cb
	return id
}

// Unsubscribe removes a previously registered callback.
func (d *Dispatcher) Unsubscribe(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, id)
}

// Publish delivers an event to all subscribers.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	cbs := make([]func(Event), 0, len(d.subs))
	for _, cb := range d.subs {
		cbs = append(cbs, cb)
	}
	d.mu.RUnlock()

	for _, cb := range cbs {
		cb(e)
	}
}

// SetEndpoint redirects future queries and notifies subscribers. A
// no-op when the endpoint is unchanged. In-flight fetches keep the
// endpoint they started with.
func (d *Dispatcher) SetEndpoint(endpoint string) {
	if d.client.Endpoint() == endpoint {
		return
	}

	d.client.SetEndpoint(endpoint)
	d.Publish(EndpointChangedEvent{Endpoint: endpoint})
}

// FetchChainInfo queries the chain status in the background and
// publishes ChainInfoEvent or ErrorEvent.
func (d *Dispatcher) FetchChainInfo(ctx context.Context) {
	go func() {
		info, err := d.client.ChainInfo(ctx)
		if err != nil {
			d.Publish(ErrorEvent{Op: OpChainInfo, Err: err})
			return
		}
		d.Publish(ChainInfoEvent{Height: info.Height})
	}()
}

// FetchBalance queries an address balance in the background and
// publishes BalanceEvent or ErrorEvent.
func (d *Dispatcher) FetchBalance(ctx context.Context, addressHex string) {
	go func() {
		balance, err := d.client.Balance(ctx, addressHex)
		if err != nil {
			d.Publish(ErrorEvent{Op: OpBalance, Address: addressHex, Err: err})
			return
		}
		d.Publish(BalanceEvent{Address: addressHex, Balance: balance})
	}()
}

// FetchIsArchon queries an address's Archon flag in the background and
// publishes ArchonStatusEvent or ErrorEvent.
func (d *Dispatcher) FetchIsArchon(ctx context.Context, addressHex string) {
	go func() {
		isArchon, err := d.client.IsArchon(ctx, addressHex)
		if err != nil {
			d.Publish(ErrorEvent{Op: OpArchonStatus, Address: addressHex, Err: err})
			return
		}
		d.Publish(ArchonStatusEvent{Address: addressHex, IsArchon: isArchon})
	}()
}

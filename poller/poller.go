// Package poller periodically refreshes chain status and a watched set
// of addresses, publishing results through the dispatcher. Queries fan
// out over a bounded worker pool and are paced by a rate limiter so a
// struggling node is not hammered.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/ALaustrup/demiurge"
	"github.com/Jeffail/tunny"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Poller drives periodic refreshes until its context is cancelled.
type Poller struct {
	dispatcher *demiurge.Dispatcher
	client     *demiurge.Client
	log        *zap.SugaredLogger

	options    *pollerOptions
	workerPool *tunny.Pool
	limiter    *rate.Limiter

	mu        sync.Mutex
	addresses map[string]struct{}

	inFlight sync.WaitGroup
}

// New creates a poller publishing through the given dispatcher.
func New(dispatcher *demiurge.Dispatcher, opts ...Option) *Poller {
	o := newPollerOptions(opts...)

	return &Poller{
		dispatcher: dispatcher,
		client:     dispatcher.Client(),
		log:        zap.S().With("module", "demiurge.poller", "name", o.name),
		options:    o,
		workerPool: tunny.NewCallback(o.workerNum),
		limiter:    rate.NewLimiter(rate.Every(o.limiterDuration), o.limiterCount),
		addresses:  make(map[string]struct{}),
	}
}

// Watch adds an address to the refresh set.
func (p *Poller) Watch(addressHex string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses[addressHex] = struct{}{}
}

// Unwatch removes an address from the refresh set.
func (p *Poller) Unwatch(addressHex string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.addresses, addressHex)
}

// Addresses returns a snapshot of the watched set.
func (p *Poller) Addresses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.addresses))
	for addr := range p.addresses {
		out = append(out, addr)
	}
	return out
}

// Run refreshes immediately, then on every tick, until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.options.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh queries the chain status once and fans out balance and
// Archon queries for every watched address. It does not wait for
// completions; outcomes arrive as dispatcher events. The queries run
// inside the worker pool so a large watch set cannot flood the node.
func (p *Poller) Refresh(ctx context.Context) {
	p.submit(ctx, func() {
		info, err := p.client.ChainInfo(ctx)
		if err != nil {
			p.dispatcher.Publish(demiurge.ErrorEvent{Op: demiurge.OpChainInfo, Err: err})
			return
		}
		p.dispatcher.Publish(demiurge.ChainInfoEvent{Height: info.Height})
	})

	for _, addr := range p.Addresses() {
		addr := addr
		p.submit(ctx, func() {
			balance, err := p.client.Balance(ctx, addr)
			if err != nil {
				p.dispatcher.Publish(demiurge.ErrorEvent{Op: demiurge.OpBalance, Address: addr, Err: err})
				return
			}
			p.dispatcher.Publish(demiurge.BalanceEvent{Address: addr, Balance: balance})
		})
		p.submit(ctx, func() {
			isArchon, err := p.client.IsArchon(ctx, addr)
			if err != nil {
				p.dispatcher.Publish(demiurge.ErrorEvent{Op: demiurge.OpArchonStatus, Address: addr, Err: err})
				return
			}
			p.dispatcher.Publish(demiurge.ArchonStatusEvent{Address: addr, IsArchon: isArchon})
		})
	}
}

func (p *Poller) submit(ctx context.Context, job func()) {
	p.inFlight.Add(1)
	go func() {
		defer p.inFlight.Done()

		if err := p.limiter.Wait(ctx); err != nil {
			p.log.Debugf("Refresh job dropped: %v", err)
			return
		}

		_, err := p.workerPool.ProcessTimed(job, p.options.jobTimeout)
		if err != nil {
			p.log.Warnf("Refresh job did not finish: %v", err)
		}
	}()
}

// Close waits for submitted refresh jobs to drain, then releases the
// worker pool. The pool would panic if a job reached it after Close,
// so no new Refresh may be started concurrently with Close.
func (p *Poller) Close() {
	p.inFlight.Wait()
	p.workerPool.Close()
}

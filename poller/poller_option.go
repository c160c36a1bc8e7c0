package poller

import (
	"runtime"
	"time"

	"github.com/google/uuid"
)

type pollerOptions struct {
	name            string
	interval        time.Duration
	workerNum       int
	limiterDuration time.Duration
	limiterCount    int
	jobTimeout      time.Duration
}

// Option is a functional option for configuring the poller.
type Option func(o *pollerOptions)

func newPollerOptions(opts ...Option) *pollerOptions {
	o := pollerOptions{
		name:            uuid.NewString(),
		interval:        10 * time.Second,
		workerNum:       runtime.NumCPU(),
		limiterDuration: 100 * time.Millisecond,
		limiterCount:    10,
		jobTimeout:      30 * time.Second,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &o
}

// WithPollerName sets the name used in log fields.
func WithPollerName(name string) Option {
	return func(o *pollerOptions) {
		o.name = name
	}
}

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) Option {
	return func(o *pollerOptions) {
		o.interval = d
	}
}

// WithWorkerNum sets the number of concurrent refresh workers.
func WithWorkerNum(count int) Option {
	return func(o *pollerOptions) {
		o.workerNum = count
	}
}

// WithLimiter paces refresh queries: at most count queries per
// duration window.
func WithLimiter(d time.Duration, count int) Option {
	return func(o *pollerOptions) {
		o.limiterDuration = d
		o.limiterCount = count
	}
}

// WithJobTimeout bounds how long a single refresh query may occupy a
// worker.
func WithJobTimeout(d time.Duration) Option {
	return func(o *pollerOptions) {
		o.jobTimeout = d
	}
}

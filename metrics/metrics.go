// Package metrics exposes Prometheus collectors for the RPC client
// and the error categorization behind their labels.
package metrics

import (
	"strconv"

	"github.com/ALaustrup/demiurge/httprpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// approximate cardinality: clients × 8 methods × a handful of
	// status codes
	rpcCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "demiurge",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "Duration of JSON-RPC calls in seconds",
	}, []string{"name", "method", "status"})

	rpcErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "demiurge",
		Subsystem: "rpc",
		Name:      "errors_total",
		Help:      "Total number of failed JSON-RPC calls",
	}, []string{"name", "method", "category"})
)

// Register hooks the collectors into a transport client. Every
// completed call is observed; failed calls are additionally counted by
// category.
func Register(c *httprpc.Client) {
	name := c.Name()
	c.OnAfterCall(func(e *httprpc.AfterCallEvent) {
		status := strconv.Itoa(e.HTTPStatus)
		rpcCallDuration.WithLabelValues(name, e.Method, status).Observe(e.Duration.Seconds())

		if e.Err != nil {
			rpcErrorsTotal.WithLabelValues(name, e.Method, string(CategorizeError(e.Err))).Inc()
		}
	})
}

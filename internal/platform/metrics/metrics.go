// Package metrics owns the prometheus registry and the process wide counters
package metrics

import (
	"errors"
	"net/http"
	"sync"

	phttp "harborlist/internal/platform/net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harborlist"

var (
	// Transitions counts listing state machine outcomes that changed something
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_transitions_total",
		Help:      "Listing transitions by event and status change",
	}, []string{"event", "from", "to"})

	// ScanSeverity counts content scans by overall severity
	ScanSeverity = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_scans_total",
		Help:      "Content risk scans by overall severity",
	}, []string{"severity"})

	// StoreRetries counts transactions re-run after a retryable storage error
	StoreRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_retries_total",
		Help:      "Transactions retried after a transient storage failure",
	})

	// StoreQueries observes postgres statement latency by outcome
	StoreQueries = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_query_seconds",
		Help:      "Postgres statement latency",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
	}, []string{"outcome"})

	// HTTPRequests observes API latency by route pattern and status class
	HTTPRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_seconds",
		Help:      "API request latency by method, route and status class",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// RelayDeliveries counts outbox deliveries per sink and outcome
	RelayDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_deliveries_total",
		Help:      "Outbox event deliveries by sink and outcome",
	}, []string{"sink", "outcome"})

	// SweeperExpired counts listings expired by the sweeper
	SweeperExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweeper_expired_total",
		Help:      "Listings moved to expired by the sweeper",
	})
)

var (
	regOnce sync.Once
	reg     *prometheus.Registry
)

// Registry returns the process registry with runtime collectors and the
// shared counters registered
func Registry() *prometheus.Registry {
	regOnce.Do(func() {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			Transitions, ScanSeverity, StoreRetries, StoreQueries, HTTPRequests, RelayDeliveries, SweeperExpired,
		)
	})
	return reg
}

// Register adds collectors, ignoring ones already registered.
// Module constructors may run more than once in tests
func Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := Registry().Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// Mount exposes the registry at path
func Mount(r phttp.Router, path string, enabled bool) {
	if !enabled {
		return
	}
	r.Handle(path, Handler())
}

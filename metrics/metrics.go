package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krisalay/flightcache/types"
)

/*
Metrics is the Prometheus view of the system: cache lifecycle events on
one side, HTTP serving on the other. It satisfies types.Metrics, so a
Cache wired with it reports straight into the registry the caller
provides.

All counters are safe for concurrent use; incrementing them is cheap
enough for the cache's hot read path.
*/
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	joins     prometheus.Counter
	expired   prometheus.Counter
	evictions prometheus.Counter
	refreshes prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ types.Metrics = (*Metrics)(nil)

// New registers every metric family on reg under the given namespace
// and returns the ready sink.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Lookups served by a live cache entry.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Lookups that ran the compute function.",
		}),
		joins: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "joins_total",
			Help:      "Lookups that attached to a computation already in flight.",
		}),
		expired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "expired_total",
			Help:      "Entries dropped because their deadline passed.",
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Live entries dropped to make room.",
		}),
		refreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "refreshes_total",
			Help:      "Background refreshes started for near-expiry entries.",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) Hit()      { m.hits.Inc() }
func (m *Metrics) Miss()     { m.misses.Inc() }
func (m *Metrics) Join()     { m.joins.Inc() }
func (m *Metrics) Expire()   { m.expired.Inc() }
func (m *Metrics) Eviction() { m.evictions.Inc() }
func (m *Metrics) Refresh()  { m.refreshes.Inc() }

// RecordRequest accounts one served HTTP request.
func (m *Metrics) RecordRequest(route, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(route, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

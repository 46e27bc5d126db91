package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pool's Prometheus collectors. Construct with a nil
// registerer to keep the collectors unregistered (tests).
type Metrics struct {
	Acquisitions prometheus.Counter
	Timeouts     prometheus.Counter
	InUse        prometheus.Gauge
	AcquireWait  prometheus.Histogram
}

// NewMetrics creates and registers the pool collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Acquisitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "pandu_pool_acquisitions_total",
			Help: "Number of successful worker acquisitions.",
		}),
		Timeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pandu_pool_acquire_timeouts_total",
			Help: "Number of acquisitions that timed out with the pool exhausted.",
		}),
		InUse: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pandu_pool_workers_in_use",
			Help: "Number of workers currently checked out.",
		}),
		AcquireWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pandu_pool_acquire_wait_seconds",
			Help:    "Time spent waiting for a free worker.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

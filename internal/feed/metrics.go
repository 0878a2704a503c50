package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricFeedCacheHits      = "feed_cache_hits_total"
	MetricFeedCacheMisses    = "feed_cache_misses_total"
	MetricFeedCacheErrors    = "feed_cache_errors_total"
	MetricFeedOracleFailures = "feed_oracle_failures_total"
	MetricFeedOracleDuration = "feed_oracle_duration_seconds"
	MetricFeedComposed       = "feed_composed_total"
)

// Metrics is a Prometheus-backed Observer. It also counts cache store
// errors reported by the rank cache. All operations are thread-safe.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheErrors    prometheus.Counter
	oracleFailures prometheus.Counter
	oracleDuration prometheus.Histogram
	composed       *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance. The metrics are not registered;
// call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedCacheHits,
			Help: "Total number of ranked feed pages served from cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedCacheMisses,
			Help: "Total number of ranked feed cache misses",
		}),
		cacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedCacheErrors,
			Help: "Total number of rank cache store or codec errors",
		}),
		oracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedOracleFailures,
			Help: "Total number of ranking oracle failures that fell back to source order",
		}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFeedOracleDuration,
			Help:    "Histogram of ranking oracle call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}),
		composed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricFeedComposed,
			Help: "Total number of composed feed pages by ordering",
		}, []string{"ordering"}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) CacheHit()      { m.cacheHits.Inc() }
func (m *Metrics) CacheMiss()     { m.cacheMisses.Inc() }
func (m *Metrics) CacheError()    { m.cacheErrors.Inc() }
func (m *Metrics) OracleFailure() { m.oracleFailures.Inc() }

// OracleDuration records one oracle call, successful or not.
func (m *Metrics) OracleDuration(d time.Duration) {
	m.oracleDuration.Observe(d.Seconds())
}

// Composed counts a served page as ranked or source-ordered.
func (m *Metrics) Composed(ranked bool) {
	if ranked {
		m.composed.WithLabelValues("ranked").Inc()
		return
	}
	m.composed.WithLabelValues("source").Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.cacheHits,
		m.cacheMisses,
		m.cacheErrors,
		m.oracleFailures,
		m.oracleDuration,
		m.composed,
	}
}

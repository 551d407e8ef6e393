package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// rainfall aggregation service.
type Metrics struct {
	StreamsStarted   prometheus.Counter
	StreamsCompleted prometheus.Counter
	StreamsFailed    prometheus.Counter
	StreamDuration   prometheus.Histogram

	YearsEmitted prometheus.Counter
	YearsSkipped prometheus.Counter
	PagesFetched prometheus.Counter
	PageErrors   prometheus.Counter

	// Region lookup metrics.
	RegionLookups *prometheus.CounterVec // labels: outcome={success,empty,error}
	RegionCache   *prometheus.CounterVec // labels: result={hit,miss}

	// Frame sink metrics.
	SinkPublished prometheus.Counter
	SinkErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.StreamsStarted,
		m.StreamsCompleted,
		m.StreamsFailed,
		m.StreamDuration,
		m.YearsEmitted,
		m.YearsSkipped,
		m.PagesFetched,
		m.PageErrors,
		m.RegionLookups,
		m.RegionCache,
		m.SinkPublished,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StreamsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "streams_started_total",
			Help:      "Total rainfall streams opened.",
		}),
		StreamsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "streams_completed_total",
			Help:      "Total rainfall streams that reached the end of the year window.",
		}),
		StreamsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "streams_failed_total",
			Help:      "Total rainfall streams terminated by an error frame.",
		}),
		StreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_trends",
			Name:      "stream_duration_seconds",
			Help:      "Wall time of a complete aggregation stream.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		YearsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "years_emitted_total",
			Help:      "Total per-year frames written to streams.",
		}),
		YearsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "years_skipped_total",
			Help:      "Total years omitted because their first page failed.",
		}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "pages_fetched_total",
			Help:      "Total upstream record pages fetched successfully.",
		}),
		PageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "page_errors_total",
			Help:      "Total upstream record page failures.",
		}),
		RegionLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "region_lookups_total",
			Help:      "County FIPS lookups by outcome.",
		}, []string{"outcome"}),
		RegionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "region_cache_total",
			Help:      "County FIPS cache lookups by result.",
		}, []string{"result"}),
		SinkPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "sink_published_total",
			Help:      "Year frames published to the Kafka sink.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall_trends",
			Name:      "sink_errors_total",
			Help:      "Failed publishes to the Kafka sink.",
		}),
	}
}

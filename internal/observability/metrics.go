package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// exposure analytics service.
type Metrics struct {
	DatasetsImported prometheus.Counter
	RecordsImported  prometheus.Counter
	RegionsCurrent   prometheus.Gauge
	EventPathsActive prometheus.Gauge
	ImpactAnalyses   prometheus.Counter

	AggregationDuration prometheus.Histogram
	ImpactDuration      prometheus.Histogram

	// Boundary-polygon fetch metrics.
	BoundaryFetches *prometheus.CounterVec // labels: set={countries,us_states}, outcome={success,error}
	BoundaryCache   *prometheus.CounterVec // labels: set, result={hit,miss}

	// Hazard feed metrics.
	FeedEventsConsumed prometheus.Counter
	FeedDecodeErrors   prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetsImported,
		m.RecordsImported,
		m.RegionsCurrent,
		m.EventPathsActive,
		m.ImpactAnalyses,
		m.AggregationDuration,
		m.ImpactDuration,
		m.BoundaryFetches,
		m.BoundaryCache,
		m.FeedEventsConsumed,
		m.FeedDecodeErrors,
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
		DatasetsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "datasets_imported_total",
			Help:      "Total datasets imported into the session.",
		}),
		RecordsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "records_imported_total",
			Help:      "Total insured-value records imported.",
		}),
		RegionsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exposure",
			Name:      "regions_current",
			Help:      "Regions produced by the most recent aggregation pass.",
		}),
		EventPathsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "exposure",
			Name:      "event_paths_active",
			Help:      "Event paths currently registered in the session.",
		}),
		ImpactAnalyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "impact_analyses_total",
			Help:      "Total per-path impact analyses computed.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exposure",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of one aggregation + statistics recompute.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		ImpactDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "exposure",
			Name:      "impact_duration_seconds",
			Help:      "Duration of one full impact analysis run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		BoundaryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "boundary_fetches_total",
			Help:      "Boundary-polygon fetches by set and outcome.",
		}, []string{"set", "outcome"}),
		BoundaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "boundary_cache_total",
			Help:      "Boundary cache lookups by set and result.",
		}, []string{"set", "result"}),
		FeedEventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "feed_events_consumed_total",
			Help:      "Hazard events read from the feed topic.",
		}),
		FeedDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exposure",
			Name:      "feed_decode_errors_total",
			Help:      "Feed messages that failed to decode.",
		}),
	}
}

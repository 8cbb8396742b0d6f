package facetbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceOverride = "override"
	sourceBuilder  = "builder"

	lookupResolved   = "resolved"
	lookupUnresolved = "unresolved"
)

// Metrics holds the Prometheus collectors updated while building aggregations.
type Metrics struct {
	buckets       *prometheus.CounterVec
	optionLookups *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer creates unregistered collectors.
//
// Example:
//
//	metrics := facetbridge.NewMetrics(prometheus.DefaultRegisterer)
//	builder := facetbridge.NewAggregationBuilder(factory,
//	    facetbridge.WithMetrics(metrics))
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		buckets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facetbridge_buckets_total",
			Help: "The total number of built buckets by aggregation source",
		}, []string{"source"}),
		optionLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "facetbridge_option_lookups_total",
			Help: "The total number of option label lookups by outcome",
		}, []string{"result"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "facetbridge_build_duration_seconds",
			Help:    "Time spent building the aggregations of one request",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) bucketBuilt(source string) {
	if m == nil {
		return
	}
	m.buckets.WithLabelValues(source).Inc()
}

func (m *Metrics) optionLookedUp(optionID string) {
	if m == nil {
		return
	}
	if optionID == "" {
		m.optionLookups.WithLabelValues(lookupUnresolved).Inc()
		return
	}
	m.optionLookups.WithLabelValues(lookupResolved).Inc()
}

func (m *Metrics) observeBuild(seconds float64) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(seconds)
}

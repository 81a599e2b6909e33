package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all matching-engine metrics
type Metrics struct {
	// Matching metrics
	MatchRequests *prometheus.CounterVec
	MatchLatency  prometheus.Histogram
	SlotsReturned prometheus.Histogram

	// Expansion metrics
	ExpansionRuns     prometheus.Counter
	ExpandedInstances prometheus.Gauge
}

// New creates and registers all matching-engine metrics
func New(namespace string) *Metrics {
	return &Metrics{
		MatchRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_requests_total",
			Help:      "Total number of slot matching requests",
		}, []string{"status"}),
		MatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time spent scoring and ranking a matching request",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		SlotsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_slots_returned",
			Help:      "Number of slots returned per matching request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		ExpansionRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_expansions_total",
			Help:      "Total number of availability expansion runs",
		}),
		ExpandedInstances: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "availability_expanded_instances",
			Help:      "Number of concrete instances produced by the last expansion",
		}),
	}
}

package metrics

import (
	"tilepath/internal/pathfinding"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes used as the outcome label. Bounded so the series count stays fixed.
const (
	OutcomeFound       = "found"
	OutcomeTrivial     = "trivial"
	OutcomeUnreachable = "unreachable"
	OutcomeTruncated   = "truncated"
)

// Collector records pathfinding searches as Prometheus metrics
type Collector struct {
	searches *prometheus.CounterVec
	expanded prometheus.Histogram
	duration prometheus.Histogram
	reopened prometheus.Counter
}

var _ pathfinding.SearchObserver = (*Collector)(nil)

// New registers the search metrics with reg
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tilepath_searches_total",
			Help: "Completed path searches by outcome",
		}, []string{"outcome"}),

		expanded: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tilepath_search_expanded_nodes",
			Help:    "Cells expanded per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tilepath_search_duration_seconds",
			Help:    "Time spent in a single search",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		reopened: factory.NewCounter(prometheus.CounterOpts{
			Name: "tilepath_reopened_closed_total",
			Help: "Closed cells reached again with a lower cost (heuristic overestimated)",
		}),
	}
}

// ObserveSearch implements pathfinding.SearchObserver
func (c *Collector) ObserveSearch(stats pathfinding.SearchStats) {
	c.searches.WithLabelValues(Outcome(stats)).Inc()
	c.expanded.Observe(float64(stats.Expanded))
	c.duration.Observe(stats.Duration.Seconds())
	if stats.Reopened > 0 {
		c.reopened.Add(float64(stats.Reopened))
	}
}

// Outcome classifies a search for the outcome label
func Outcome(stats pathfinding.SearchStats) string {
	switch {
	case stats.Found && stats.Start == stats.Goal:
		return OutcomeTrivial
	case stats.Found:
		return OutcomeFound
	case stats.Truncated:
		return OutcomeTruncated
	default:
		return OutcomeUnreachable
	}
}

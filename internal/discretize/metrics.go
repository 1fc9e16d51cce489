package discretize

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for discretization runs. A nil *Metrics
// records nothing.
type Metrics struct {
	// Runs by result: "ok" or "error".
	Runs *prometheus.CounterVec

	// Lowering cache lookups by result: "hit" or "miss".
	CacheLookups *prometheus.CounterVec

	// Length of the state vector of every successful run.
	StateSize prometheus.Histogram

	// Duration of a whole ProcessModel call.
	Duration prometheus.Histogram
}

// NewMetrics creates the discretization metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discretego_discretizations_total",
			Help: "Total discretization runs by result",
		}, []string{"result"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "discretego_lowering_cache_lookups_total",
			Help: "Lowering cache lookups by result",
		}, []string{"result"}),

		StateSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "discretego_state_size",
			Help:    "Length of the state vector of discretized models",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),

		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "discretego_discretization_duration_seconds",
			Help:    "Duration of a full model discretization",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRun(size int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
	if err != nil {
		m.Runs.WithLabelValues("error").Inc()
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.StateSize.Observe(float64(size))
}

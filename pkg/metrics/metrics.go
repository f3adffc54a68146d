// The metrics package exposes Prometheus metrics about simulations, ranking
// trials and graph loading. A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the application
type Registry struct {
	registry *prometheus.Registry

	SimulationsTotal   *prometheus.CounterVec
	SimulationSteps    prometheus.Histogram
	SimulationReach    prometheus.Histogram
	SimulationDuration prometheus.Histogram

	TrialsTotal  prometheus.Counter
	RankDuration prometheus.Histogram

	EdgesLoadedTotal  prometheus.Counter
	LinesSkippedTotal prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initSimulationMetrics()
	r.initLoaderMetrics()
	return r
}

func (r *Registry) initSimulationMetrics() {
	r.SimulationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gossip_simulations_total",
			Help: "Total number of spread simulations",
		},
		[]string{"status"},
	)

	r.SimulationSteps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gossip_simulation_steps",
			Help:    "Number of completed steps per simulation, seed step included",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	r.SimulationReach = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gossip_simulation_reach",
			Help:    "Number of nodes reached per simulation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	r.SimulationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gossip_simulation_duration_seconds",
			Help:    "Simulation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)

	r.TrialsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_trials_total",
			Help: "Total number of seeds evaluated by the spreader ranker",
		},
	)

	r.RankDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gossip_rank_duration_seconds",
			Help:    "Duration of a full spreader ranking in seconds",
			Buckets: []float64{0.01, 0.1, 1.0, 10.0, 60.0},
		},
	)
}

func (r *Registry) initLoaderMetrics() {
	r.EdgesLoadedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_edges_loaded_total",
			Help: "Total number of edges added while loading graphs",
		},
	)

	r.LinesSkippedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "gossip_lines_skipped_total",
			Help: "Total number of malformed input lines skipped while loading graphs",
		},
	)
}

// RecordSimulation records a simulation with its outcome
func (r *Registry) RecordSimulation(steps, reach int, duration time.Duration, err error) {
	if r == nil {
		return
	}

	if err != nil {
		r.SimulationsTotal.WithLabelValues("error").Inc()
		return
	}

	r.SimulationsTotal.WithLabelValues("ok").Inc()
	r.SimulationSteps.Observe(float64(steps))
	r.SimulationReach.Observe(float64(reach))
	r.SimulationDuration.Observe(duration.Seconds())
}

// RecordTrial counts one evaluated seed
func (r *Registry) RecordTrial() {
	if r == nil {
		return
	}
	r.TrialsTotal.Inc()
}

// RecordRank records the duration of a full ranking
func (r *Registry) RecordRank(duration time.Duration) {
	if r == nil {
		return
	}
	r.RankDuration.Observe(duration.Seconds())
}

// RecordLoad records the outcome of a graph load
func (r *Registry) RecordLoad(edges, skipped int) {
	if r == nil {
		return
	}
	r.EdgesLoadedTotal.Add(float64(edges))
	r.LinesSkippedTotal.Add(float64(skipped))
}

// Handler returns an http.Handler serving the metrics in the Prometheus format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

package csp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are Prometheus collectors shared by any number of CSPs. All series
// carry a "backend" label (fd or symbolic).
type Metrics struct {
	Solves           *prometheus.CounterVec
	Models           *prometheus.CounterVec
	Exhaustions      *prometheus.CounterVec
	DefinitionErrors *prometheus.CounterVec
	NoSolutions      *prometheus.CounterVec
	SolveDuration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := []string{"backend"}
	return &Metrics{
		Solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "solves_total",
			Help:      "Solver states built and translated.",
		}, labels),
		Models: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "models_total",
			Help:      "Models produced.",
		}, labels),
		Exhaustions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "exhaustions_total",
			Help:      "Transitions into the exhausted state.",
		}, labels),
		DefinitionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "definition_errors_total",
			Help:      "Definition errors absorbed during translation or search.",
		}, labels),
		NoSolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csp",
			Name:      "no_solution_total",
			Help:      "Finite-domain problems without any solution.",
		}, labels),
		SolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "csp",
			Name:      "next_solution_seconds",
			Help:      "Time spent in NextSolution.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, labels),
	}
}

// inc bumps the counter picked from m; safe on a nil *Metrics.
func (m *Metrics) inc(pick func(*Metrics) *prometheus.CounterVec, k Kind) {
	if m != nil {
		pick(m).WithLabelValues(k.String()).Inc()
	}
}

func solvesCounter(m *Metrics) *prometheus.CounterVec      { return m.Solves }
func modelsCounter(m *Metrics) *prometheus.CounterVec      { return m.Models }
func exhaustionsCounter(m *Metrics) *prometheus.CounterVec { return m.Exhaustions }
func definitionCounter(m *Metrics) *prometheus.CounterVec  { return m.DefinitionErrors }
func noSolutionCounter(m *Metrics) *prometheus.CounterVec  { return m.NoSolutions }

func (m *Metrics) observe(k Kind, start time.Time) {
	if m != nil {
		m.SolveDuration.WithLabelValues(k.String()).Observe(time.Since(start).Seconds())
	}
}

package observability

import (
	"context"
	"errors"

	"github.com/aretw0/lattice/pkg/block"
	"github.com/aretw0/lattice/pkg/fault"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lattice"

// Metrics holds the Prometheus collectors fed by block lifecycle hooks.
type Metrics struct {
	Activations *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Warmups     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_activations_total",
				Help:      "Total number of block activations by result.",
			},
			[]string{"block", "result"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_errors_total",
				Help:      "Total number of block failures by error kind.",
			},
			[]string{"block", "kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "block_activation_duration_seconds",
				Help:      "Duration of block activations.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"block"},
		),
		Warmups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_warmups_total",
				Help:      "Total number of block warmups.",
			},
			[]string{"block"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Activations, m.Errors, m.Duration, m.Warmups} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() block.Hooks {
	return block.Hooks{
		OnWarmup: func(_ context.Context, e *block.Event) {
			m.Warmups.WithLabelValues(e.Block).Inc()
			m.recordError(e)
		},
		OnActivate: func(_ context.Context, e *block.Event) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Activations.WithLabelValues(e.Block, result).Inc()
			m.Duration.WithLabelValues(e.Block).Observe(e.Duration.Seconds())
			m.recordError(e)
		},
	}
}

func (m *Metrics) recordError(e *block.Event) {
	if e.Err == nil {
		return
	}
	kind := string(fault.KindOf(e.Err))
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		kind = "canceled"
	}
	m.Errors.WithLabelValues(e.Block, kind).Inc()
}

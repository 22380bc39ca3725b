package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report pipeline activity.
type Metrics struct {
	iterations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// Collectors already registered under the same names are reused. A nil reg
// leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	iterations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crowdseed",
			Name:      "iterations_total",
			Help:      "Pipeline iterations by outcome.",
		},
		[]string{"pipeline", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crowdseed",
			Name:      "iteration_duration_seconds",
			Help:      "Wall time of one generate, parse, persist cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"pipeline"},
	)

	if reg != nil {
		if err := reg.Register(iterations); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			iterations = already.ExistingCollector.(*prometheus.CounterVec)
		}
		if err := reg.Register(duration); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			duration = already.ExistingCollector.(*prometheus.HistogramVec)
		}
	}

	return &Metrics{iterations: iterations, duration: duration}, nil
}

func (m *Metrics) observe(pipeline string, r IterationResult) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if !r.Succeeded() {
		outcome = "failed_" + r.FailedAt.String()
	}
	m.iterations.WithLabelValues(pipeline, outcome).Inc()
	m.duration.WithLabelValues(pipeline).Observe(r.Duration.Seconds())
}

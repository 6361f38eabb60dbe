package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, gauges, and histograms for the
// training loop and the serving surface.
type Metrics struct {
	TrainSteps        *prometheus.CounterVec // label: branch={discriminator,generator}
	GeneratorLoss     prometheus.Gauge
	DiscriminatorLoss prometheus.Gauge
	EpochDuration     prometheus.Histogram
	TrainingRunning   prometheus.Gauge

	// Serving metrics.
	GenerateRequests *prometheus.CounterVec // label: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TrainSteps,
		m.GeneratorLoss,
		m.DiscriminatorLoss,
		m.EpochDuration,
		m.TrainingRunning,
		m.GenerateRequests,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry,
// avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TrainSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscale",
			Name:      "train_steps_total",
			Help:      "Training steps executed, by updated branch.",
		}, []string{"branch"}),
		GeneratorLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainscale",
			Name:      "generator_loss",
			Help:      "Running mean of the generator adversarial loss.",
		}),
		DiscriminatorLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainscale",
			Name:      "discriminator_loss",
			Help:      "Running mean of the discriminator adversarial loss.",
		}),
		EpochDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainscale",
			Name:      "epoch_duration_seconds",
			Help:      "Wall time per training epoch.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		TrainingRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainscale",
			Name:      "training_running",
			Help:      "1 while a training run is active, 0 otherwise.",
		}),
		GenerateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainscale",
			Name:      "generate_requests_total",
			Help:      "Inference requests served, by outcome.",
		}, []string{"outcome"}),
	}
}

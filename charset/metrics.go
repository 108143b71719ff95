package charset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a Resolver. A nil *Metrics records nothing.
type Metrics struct {
	guesses          *prometheus.CounterVec
	detectorFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		guesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_encoding_guesses_total",
				Help: "Total number of encoding guesses",
			},
			[]string{"source"}, // detect, default
		),
		detectorFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "langid_encoding_detector_failures_total",
			Help: "Total number of encoding detector failures",
		}),
	}
}

func (m *Metrics) guessed(source string) {
	if m == nil {
		return
	}
	m.guesses.WithLabelValues(source).Inc()
}

func (m *Metrics) detectorFailed() {
	if m == nil {
		return
	}
	m.detectorFailures.Inc()
}

package lid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a Pool. A nil *Metrics records nothing.
type Metrics struct {
	identifications *prometheus.CounterVec
	borrowFailures  prometheus.Counter
	enginesCreated  prometheus.Counter
	enginesInUse    prometheus.Gauge
}

// NewMetrics registers the pool metrics with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		identifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_identifications_total",
				Help: "Total number of language identifications",
			},
			[]string{"language"}, // "" when nothing matched
		),
		borrowFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "langid_engine_borrow_failures_total",
			Help: "Total number of failed engine borrows",
		}),
		enginesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "langid_engines_created_total",
			Help: "Total number of identification engines created",
		}),
		enginesInUse: factory.NewGauge(prometheus.GaugeOpts{
			Name: "langid_engines_in_use",
			Help: "Number of identification engines currently borrowed",
		}),
	}
}

func (m *Metrics) identified(lang string) {
	if m == nil {
		return
	}
	m.identifications.WithLabelValues(lang).Inc()
}

func (m *Metrics) borrowFailed() {
	if m == nil {
		return
	}
	m.borrowFailures.Inc()
}

func (m *Metrics) engineCreated() {
	if m == nil {
		return
	}
	m.enginesCreated.Inc()
}

func (m *Metrics) setInUse(n int64) {
	if m == nil {
		return
	}
	m.enginesInUse.Set(float64(n))
}

package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the custom Prometheus metrics of the roadmap services
type Metrics struct {
	Mutations      *prometheus.CounterVec
	SignIns        *prometheus.CounterVec
	LegacyMigrated prometheus.Counter
}

// NewMetrics registers the metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Mutations by operation and outcome (ok, not_found, forbidden, invalid, error)
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roadmaps_mutations_total",
			Help: "Total number of roadmap operations by type and result",
		}, []string{"op", "result"}),

		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roadmaps_signins_total",
			Help: "Total number of sign-in attempts by result",
		}, []string{"result"}),

		LegacyMigrated: factory.NewCounter(prometheus.CounterOpts{
			Name: "roadmaps_legacy_categories_migrated_total",
			Help: "Total number of legacy categories copied into roadmaps",
		}),
	}
}

// resultLabel maps an operation error onto its metric label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// observe records one operation outcome. A nil Metrics records nothing.
func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, resultLabel(err)).Inc()
}

// ObserveSignIn records one sign-in outcome
func (m *Metrics) ObserveSignIn(err error) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) addMigrated(n int) {
	if m == nil || n == 0 {
		return
	}
	m.LegacyMigrated.Add(float64(n))
}

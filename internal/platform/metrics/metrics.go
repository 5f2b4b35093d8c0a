package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared by the integrity guards.
type Metrics struct {
	AuthorizationDenials *prometheus.CounterVec
	GuardRejections      *prometheus.CounterVec
	Mutations            *prometheus.CounterVec
	MutationDuration     *prometheus.HistogramVec
}

// New creates the guard metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthorizationDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_authorization_denials_total",
			Help: "Guarded calls refused by the authorization engine",
		}, []string{"resource", "action", "reason"}),
		GuardRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_guard_rejections_total",
			Help: "Mutations refused by an integrity guard, by error code",
		}, []string{"guard", "code"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_guard_mutations_total",
			Help: "Mutations applied by an integrity guard",
		}, []string{"guard", "operation"}),
		MutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrcore_guard_mutation_duration_seconds",
			Help:    "Duration of guarded mutations including the audit append",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"guard", "operation"}),
	}
}

// IncDenied records an authorization denial.
func (m *Metrics) IncDenied(resource, action, reason string) {
	m.AuthorizationDenials.WithLabelValues(resource, action, reason).Inc()
}

// IncRejected records an invariant rejection such as a cycle or bad transition.
func (m *Metrics) IncRejected(guard, code string) {
	m.GuardRejections.WithLabelValues(guard, code).Inc()
}

// ObserveMutation records a successful mutation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(guard, operation string, start time.Time) {
	m.Mutations.WithLabelValues(guard, operation).Inc()
	m.MutationDuration.WithLabelValues(guard, operation).Observe(time.Since(start).Seconds())
}

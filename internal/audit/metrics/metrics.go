package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit trail.
type Metrics struct {
	EntriesAppended *prometheus.CounterVec
	AppendFailures  prometheus.Counter
	AppendDuration  prometheus.Histogram
	QueryDuration   prometheus.Histogram
	Clears          prometheus.Counter
}

// New registers the audit metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EntriesAppended: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrcore_audit_entries_appended_total",
			Help: "Audit entries appended, by action and outcome",
		}, []string{"action", "success"}),
		AppendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_audit_append_failures_total",
			Help: "Audit appends the backing store rejected",
		}),
		AppendDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrcore_audit_append_duration_seconds",
			Help:    "Duration of audit appends",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}),
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hrcore_audit_query_duration_seconds",
			Help:    "Duration of audit queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Clears: f.NewCounter(prometheus.CounterOpts{
			Name: "hrcore_audit_clears_total",
			Help: "Administrative audit resets",
		}),
	}
}

// IncAppended records a stored entry.
func (m *Metrics) IncAppended(action string, success bool) {
	s := "false"
	if success {
		s = "true"
	}
	m.EntriesAppended.WithLabelValues(action, s).Inc()
}

func (m *Metrics) IncAppendFailures() {
	m.AppendFailures.Inc()
}

// ObserveAppend records the duration of an append.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAppend(start time.Time) {
	m.AppendDuration.Observe(time.Since(start).Seconds())
}

// ObserveQuery records the duration of a read.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveQuery(start time.Time) {
	m.QueryDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncClears() {
	m.Clears.Inc()
}

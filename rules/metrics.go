package rules

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for rule runs. A nil *Metrics records nothing.
type Metrics struct {
	// Rule execution latency by rule id
	RuleDuration *prometheus.HistogramVec

	// Issues posted by rule id and severity
	IssuesPosted *prometheus.CounterVec

	// Rule outcomes by status
	RuleOutcome *prometheus.CounterVec

	// Model store point lookups issued by the resolver
	StoreLookups prometheus.Counter
}

// NewMetrics registers the rule metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RuleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "niemqa_rule_duration_seconds",
			Help:    "Duration of a rule run",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"rule"}),

		IssuesPosted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "niemqa_issues_posted_total",
			Help: "Total issues posted by rule and severity",
		}, []string{"rule", "severity"}),

		RuleOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "niemqa_rule_outcomes_total",
			Help: "Total rule outcomes by status",
		}, []string{"status"}), // status: "pass", "fail", "error"

		StoreLookups: factory.NewCounter(prometheus.CounterOpts{
			Name: "niemqa_store_lookups_total",
			Help: "Total model store point lookups",
		}),
	}
}

// ObserveRule records the duration of a rule run.
func (m *Metrics) ObserveRule(rule string, d time.Duration) {
	if m != nil {
		m.RuleDuration.WithLabelValues(rule).Observe(d.Seconds())
	}
}

// AddIssues records posted issues.
func (m *Metrics) AddIssues(rule, severity string, n int) {
	if m != nil && n > 0 {
		m.IssuesPosted.WithLabelValues(rule, severity).Add(float64(n))
	}
}

// IncrementOutcome records a rule outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.RuleOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementLookups records a model store lookup.
func (m *Metrics) IncrementLookups() {
	if m != nil {
		m.StoreLookups.Inc()
	}
}

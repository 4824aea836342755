package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcome label values.
const (
	OutcomeCreated   = "created"
	OutcomeExtended  = "extended"
	OutcomeMerged    = "merged"
	OutcomeDuplicate = "duplicate"
)

// Metrics provides observability for the contact module. A nil receiver is
// safe everywhere so tests and trimmed-down deployments can pass nil.
type Metrics struct {
	// Resolution outcomes by what the observation did to the graph
	Resolutions *prometheus.CounterVec

	// Rows written by link precedence
	ContactsCreated *prometheus.CounterVec

	// Cross-group merges, one increment per absorbed group
	Merges prometheus.Counter

	// Graph states that should not occur under the linking invariants
	InvariantAnomalies *prometheus.CounterVec
}

// New creates a Metrics instance with all contact module metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idlink_resolutions_total",
			Help: "Total identify resolutions by outcome",
		}, []string{"outcome"}), // outcome: "created", "extended", "merged", "duplicate"

		ContactsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idlink_contacts_created_total",
			Help: "Total contact rows created by link precedence",
		}, []string{"precedence"}),

		Merges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idlink_merges_total",
			Help: "Total identity group merges",
		}),

		InvariantAnomalies: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idlink_invariant_anomalies_total",
			Help: "Total linking invariant anomalies detected and repaired",
		}, []string{"kind"}), // kind: "multi_group", "multi_primary", "missing_primary"
	}
}

// IncrementResolution records the outcome of one identify resolution.
func (m *Metrics) IncrementResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}

// IncrementContactsCreated records a new contact row.
func (m *Metrics) IncrementContactsCreated(precedence string) {
	if m != nil {
		m.ContactsCreated.WithLabelValues(precedence).Inc()
	}
}

// IncrementMerges records one absorbed identity group.
func (m *Metrics) IncrementMerges() {
	if m != nil {
		m.Merges.Inc()
	}
}

// IncrementInvariantAnomaly records a graph state the linking rules should
// have made impossible.
func (m *Metrics) IncrementInvariantAnomaly(kind string) {
	if m != nil {
		m.InvariantAnomalies.WithLabelValues(kind).Inc()
	}
}

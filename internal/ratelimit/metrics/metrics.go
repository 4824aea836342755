package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks rate limiter activity. Nil-safe like the other metric
// structs so tests can pass nil.
type Metrics struct {
	Rejected    prometheus.Counter
	CheckErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idlink_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		}),
		CheckErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idlink_rate_limit_check_errors_total",
			Help: "Total rate limit checks that failed and were allowed through",
		}),
	}
}

// IncrementRejected counts one rejected request.
func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

// IncrementCheckErrors counts one failed limiter check that was let through.
func (m *Metrics) IncrementCheckErrors() {
	if m != nil {
		m.CheckErrors.Inc()
	}
}

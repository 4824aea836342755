package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP-level Prometheus metrics shared by all handlers.
// Domain packages register their own metrics alongside these.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	AuditDropped    prometheus.Counter
}

// New creates and registers all process-level metrics. Call once per process;
// tests that need a Metrics value should use the zero value instead, whose
// methods are no-ops.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idlink_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route, method and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),

		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idlink_audit_dropped_total",
			Help: "Audit events dropped because the pipeline buffer was full",
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil || m.RequestDuration == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrementAuditDropped counts one dropped audit event.
func (m *Metrics) IncrementAuditDropped() {
	if m == nil || m.AuditDropped == nil {
		return
	}
	m.AuditDropped.Inc()
}

// Handler exposes the default Prometheus registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

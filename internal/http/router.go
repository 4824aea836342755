// Package httpapi assembles the service router. Handlers stay in their
// domain packages; this wires them behind one shared middleware chain.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	contacthandler "idlink/internal/contact/handler"
	"idlink/internal/platform/metrics"
	"idlink/internal/platform/middleware"
	ratelimitmw "idlink/internal/ratelimit/middleware"
	"idlink/pkg/platform/httputil"
)

const defaultRequestTimeout = 30 * time.Second

// ReadyCheck probes one backing dependency for the readiness endpoint.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Contact        *contacthandler.Handler
	RateLimit      *ratelimitmw.Middleware
	RequestTimeout time.Duration
	ReadyChecks    []ReadyCheck
}

// New builds the root router: recovery first so nothing below it can take
// the process down, request identity and client metadata next so every later
// stage logs and audits with full context, then the routes.
func New(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.LatencyMiddleware(deps.Metrics))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}
		deps.Contact.Register(r)
	})

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(deps.ReadyChecks, deps.Logger))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// handleHealthz reports process liveness only; it must stay dependency-free.
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings every backing dependency and reports 503 as soon as one
// fails, so load balancers stop routing before errors reach clients.
func handleReadyz(checks []ReadyCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed",
					"dependency", c.Name,
					"error", err.Error(),
				)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"failed": c.Name,
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

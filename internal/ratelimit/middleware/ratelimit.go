package middleware

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"idlink/internal/audit"
	"idlink/internal/ratelimit/metrics"
	"idlink/internal/ratelimit/models"
	dErrors "idlink/pkg/domain-errors"
	"idlink/pkg/platform/httputil"
	"idlink/pkg/requestcontext"
)

// Limiter is what the middleware needs from the rate-limit service.
type Limiter interface {
	AllowIP(ctx context.Context, ip string) (*models.Result, error)
}

// Middleware guards routes with the IP limiter. A failing limiter check
// fails open: throttling is protection, not a dependency the endpoint dies
// with.
type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder *audit.Recorder
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through (demo mode, tests).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithRecorder routes rejection events into the audit trail.
func WithRecorder(recorder *audit.Recorder) Option {
	return func(m *Middleware) {
		m.recorder = recorder
	}
}

func New(limiter Limiter, logger *slog.Logger, met *metrics.Metrics, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		metrics: met,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.limiter == nil {
		m.disabled = true
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces the per-IP policy on the wrapped handler.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.AllowIP(ctx, ip)
		if err != nil {
			m.logger.Error("rate limit check failed, allowing request",
				"error", err,
				"ip_prefix", models.AnonymizeIP(ip),
			)
			m.metrics.IncrementCheckErrors()
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			m.metrics.IncrementRejected()
			m.recorder.Record(ctx, audit.Event{
				Action: audit.ActionRateLimitExceeded,
				Reason: "ip request rate exceeded",
			})
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, retry later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

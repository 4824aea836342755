package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"idlink/internal/ratelimit/models"
)

// BucketStore is the counter backend behind the limiter. Keys are opaque
// strings; the caller namespaces them.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Reset(ctx context.Context, key string) error
}

// Limiter enforces one request-rate policy per client IP.
type Limiter struct {
	buckets BucketStore
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

func New(buckets BucketStore, limit int, window time.Duration, logger *slog.Logger) (*Limiter, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	return &Limiter{
		buckets: buckets,
		limit:   limit,
		window:  window,
		logger:  logger,
	}, nil
}

// AllowIP checks and counts one request from the given client IP.
func (l *Limiter) AllowIP(ctx context.Context, ip string) (*models.Result, error) {
	if ip == "" {
		// Clients without a resolvable address share one bucket rather than
		// bypassing the limiter entirely.
		ip = "unknown"
	}
	result, err := l.buckets.Allow(ctx, models.IPKey(ip), l.limit, l.window)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		l.logger.Warn("rate limit exceeded",
			"ip_prefix", models.AnonymizeIP(ip),
			"limit", result.Limit,
			"retry_after_s", result.RetryAfter,
		)
	}
	return result, nil
}

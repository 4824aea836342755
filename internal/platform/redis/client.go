// Package redis owns the shared Redis connection used by the rate-limit
// bucket store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idlink/internal/platform/config"
)

// connectTimeout bounds the boot-time reachability check so a down Redis
// fails startup quickly instead of hanging it.
const connectTimeout = 5 * time.Second

// Client wraps go-redis with a Health method for readiness probes.
type Client struct {
	*redis.Client
}

// New connects using the configured URL and verifies the server is
// reachable. An empty URL returns (nil, nil) and the caller runs without
// rate limiting.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers, for readyz.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

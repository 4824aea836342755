package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures all process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Env             string
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig

	// FingerprintSecret keys the hashing of contact identifiers in audit
	// events. The default is for development only.
	FingerprintSecret string
}

// PostgresConfig configures the contact store. An empty URL selects the
// in-memory store (dev/demo mode).
type PostgresConfig struct {
	URL string
}

// RedisConfig configures the rate-limit bucket store. An empty URL disables
// rate limiting.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event sink. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// AuditConfig tunes the async audit pipeline.
type AuditConfig struct {
	BufferSize int
}

// RateLimitConfig bounds request rates per client IP on the identify endpoint.
type RateLimitConfig struct {
	RequestsPerMinute int
	Window            time.Duration
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything that is unset.
func FromEnv() Config {
	return Config{
		Env:             envOr("ENV", "dev"),
		Addr:            envOr("IDLINK_ADDR", ":8080"),
		RequestTimeout:  envDurationOr("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: envDurationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "identity-audit"),
		},
		Audit: AuditConfig{
			BufferSize: envIntOr("AUDIT_BUFFER", 256),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envIntOr("RATE_LIMIT_RPM", 120),
			Window:            time.Minute,
		},
		// Must be overridden in production
		FingerprintSecret: envOr("FINGERPRINT_SECRET", "dev-fingerprint-key-change-in-production"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"idlink/internal/audit"
	auditkafka "idlink/internal/audit/kafka"
	auditstore "idlink/internal/audit/store"
	contacthandler "idlink/internal/contact/handler"
	contactmetrics "idlink/internal/contact/metrics"
	contactservice "idlink/internal/contact/service"
	contactstore "idlink/internal/contact/store"
	httpapi "idlink/internal/http"
	"idlink/internal/platform/config"
	"idlink/internal/platform/httpserver"
	"idlink/internal/platform/logger"
	"idlink/internal/platform/metrics"
	platformredis "idlink/internal/platform/redis"
	ratelimitmetrics "idlink/internal/ratelimit/metrics"
	ratelimitmw "idlink/internal/ratelimit/middleware"
	ratelimitservice "idlink/internal/ratelimit/service"
	"idlink/internal/ratelimit/store/bucket"
)

const kafkaBootstrapTimeout = 10 * time.Second

// main wires dependencies and runs the process; all domain logic lives in
// the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("idlink exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.New()
	cMetrics := contactmetrics.New()
	rlMetrics := ratelimitmetrics.New()

	var readyChecks []httpapi.ReadyCheck

	// Contact store: PostgreSQL when configured, in-memory otherwise.
	var storeTx contactservice.StoreTx
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("create postgres pool: %w", err)
		}
		defer pool.Close()

		pgStore := contactstore.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			return err
		}
		storeTx = contactstore.NewPostgresTx(pool)
		readyChecks = append(readyChecks, httpapi.ReadyCheck{Name: "postgres", Check: pgStore.Health})
		log.Info("contact store ready", "backend", "postgres")
	} else {
		storeTx = contactstore.NewInMemoryTx(contactstore.NewInMemoryStore())
		log.Warn("DATABASE_URL not set, using in-memory contact store")
	}

	// Audit pipeline: fingerprinted events through a bounded channel into the
	// outbox store, optionally fanned out to Kafka.
	var auditDest audit.Store
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("open audit database: %w", err)
		}
		defer db.Close()

		outbox := auditstore.NewPostgresStore(db)
		if err := outbox.Migrate(ctx); err != nil {
			return err
		}
		auditDest = outbox
	} else {
		auditDest = auditstore.NewInMemoryStore()
	}

	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		bootstrapCtx, cancel := context.WithTimeout(ctx, kafkaBootstrapTimeout)
		sink, err := auditkafka.NewSink(bootstrapCtx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		cancel()
		if err != nil {
			return err
		}
		defer sink.Close()
		auditSink = sink
	}

	fingerprinter := audit.NewFingerprinter(cfg.FingerprintSecret)
	recorder := audit.NewRecorder(cfg.Audit.BufferSize, fingerprinter, log, httpMetrics)
	worker := audit.NewWorker(auditDest, auditSink, recorder.Inbox(), log)

	// Rate limiting: enabled only when Redis is configured; the middleware
	// degrades to a pass-through otherwise.
	var limiter ratelimitmw.Limiter
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()

		limiter, err = ratelimitservice.New(
			bucket.NewRedisBucketStore(redisClient.Client),
			cfg.RateLimit.RequestsPerMinute,
			cfg.RateLimit.Window,
			log,
		)
		if err != nil {
			return fmt.Errorf("build rate limiter: %w", err)
		}
		readyChecks = append(readyChecks, httpapi.ReadyCheck{Name: "redis", Check: redisClient.Health})
	}
	rateLimit := ratelimitmw.New(limiter, log, rlMetrics, ratelimitmw.WithRecorder(recorder))

	contactSvc := contactservice.New(storeTx, log, cMetrics, recorder)

	router := httpapi.New(httpapi.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		Contact:        contacthandler.New(contactSvc, log),
		RateLimit:      rateLimit,
		RequestTimeout: cfg.RequestTimeout,
		ReadyChecks:    readyChecks,
	})

	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(ctx)
	})

	g.Go(func() error {
		log.Info("idlink listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

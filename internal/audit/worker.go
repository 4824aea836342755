package audit

import (
	"context"
	"log/slog"
	"time"

	"idlink/pkg/platform/circuit"
)

// drainTimeout bounds how long the worker spends flushing buffered events
// after shutdown begins.
const drainTimeout = 2 * time.Second

// probeEvery is how many events pass an open stream circuit before the
// worker tests the sink with one again.
const probeEvery = 16

// Store persists audit events durably.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Sink publishes audit events to a downstream stream. Optional.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains recorded events into the store and, when configured, the
// sink. Append and publish failures are logged and the worker keeps going;
// an audit outage must never take identity resolution down with it. A
// repeatedly failing sink trips a circuit breaker so the worker stops
// hammering it and probes for recovery instead.
type Worker struct {
	store   Store
	sink    Sink
	inbox   <-chan Event
	logger  *slog.Logger
	breaker *circuit.Breaker

	// probe pacing while the stream circuit is open
	sinceProbe int
	skipped    int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithBreaker replaces the default stream circuit breaker.
func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = b
	}
}

// NewWorker builds a Worker. sink may be nil.
func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		store:   store,
		sink:    sink,
		inbox:   inbox,
		logger:  logger,
		breaker: circuit.New("audit-stream"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes events until ctx is cancelled, then flushes whatever is still
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error("audit append failed", "error", err, "action", event.Action, "event_id", event.ID)
	}
	if w.sink == nil {
		return
	}
	w.publish(ctx, event)
}

// publish offers the event to the stream sink behind the circuit breaker.
// Events skipped while the circuit is open are not lost, the outbox already
// holds them; the stream is best-effort fan-out.
func (w *Worker) publish(ctx context.Context, event Event) {
	if w.breaker.IsOpen() {
		w.sinceProbe++
		if w.sinceProbe < probeEvery {
			w.skipped++
			return
		}
		w.sinceProbe = 0
	}

	if err := w.sink.Publish(ctx, event); err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.Error("audit stream circuit opened", "breaker", w.breaker.Name(), "error", err)
			return
		}
		w.logger.Error("audit publish failed", "error", err, "action", event.Action, "event_id", event.ID)
		return
	}

	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.Info("audit stream circuit closed", "breaker", w.breaker.Name(), "events_skipped", w.skipped)
		w.skipped = 0
	}
}

// drain flushes events already buffered at shutdown under a fresh deadline.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		default:
			return
		}
	}
}

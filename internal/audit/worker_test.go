package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idlink/pkg/platform/circuit"
)

type WorkerSuite struct {
	suite.Suite
	recorder *Recorder
	store    *captureStore
	sink     *captureSink
}

func TestWorkerSuite(t *testing.T) {
	suite.Run(t, new(WorkerSuite))
}

func (s *WorkerSuite) SetupTest() {
	s.recorder = NewRecorder(16, nil, testLogger(), nil)
	s.store = &captureStore{}
	s.sink = &captureSink{}
}

func (s *WorkerSuite) TestDrainsInboxIntoStoreAndSink() {
	worker := NewWorker(s.store, s.sink, s.recorder.Inbox(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for i := 0; i < 3; i++ {
		s.recorder.Record(ctx, Event{Action: ActionContactCreated})
	}

	s.Eventually(func() bool {
		return len(s.store.list()) == 3 && len(s.sink.list()) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Require().ErrorIs(<-done, context.Canceled)
}

func (s *WorkerSuite) TestFlushesBufferedEventsOnShutdown() {
	// Events recorded before the worker ever ran must still land.
	for i := 0; i < 3; i++ {
		s.recorder.Record(context.Background(), Event{Action: ActionIdentityExtended})
	}

	worker := NewWorker(s.store, s.sink, s.recorder.Inbox(), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.Run(ctx)
	s.Require().ErrorIs(err, context.Canceled)
	s.Len(s.store.list(), 3)
	s.Len(s.sink.list(), 3)
}

func (s *WorkerSuite) TestAppendFailureDoesNotStopTheWorker() {
	s.store.err = errors.New("outbox down")
	worker := NewWorker(s.store, s.sink, s.recorder.Inbox(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	s.recorder.Record(ctx, Event{Action: ActionContactCreated})
	s.recorder.Record(ctx, Event{Action: ActionIdentityMerged})

	// The sink still sees every event even while appends fail.
	s.Eventually(func() bool {
		return len(s.sink.list()) == 2
	}, time.Second, 5*time.Millisecond)
	s.Empty(s.store.list())

	cancel()
	<-done
}

func (s *WorkerSuite) TestStreamCircuitSkipsThenRecovers() {
	s.sink.failFirst = 2
	breaker := circuit.New("audit-stream", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	worker := NewWorker(s.store, s.sink, s.recorder.Inbox(), testLogger(), WithBreaker(breaker))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Two failures trip the circuit, the next probeEvery-1 events bypass the
	// sink entirely, the probe succeeds and closes it, and the last event
	// publishes normally.
	total := 2 + probeEvery + 1
	for i := 0; i < total; i++ {
		s.recorder.Record(ctx, Event{Action: ActionContactCreated})
	}

	s.Eventually(func() bool {
		return len(s.store.list()) == total
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	s.Equal(4, s.sink.calls(), "two trips, one probe, one regular publish")
	s.Len(s.sink.list(), 2)
	s.False(breaker.IsOpen())
}

func (s *WorkerSuite) TestNilSink() {
	worker := NewWorker(s.store, nil, s.recorder.Inbox(), testLogger())

	s.recorder.Record(context.Background(), Event{Action: ActionContactCreated})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Require().ErrorIs(worker.Run(ctx), context.Canceled)
	s.Len(s.store.list(), 1)
}

type captureStore struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (c *captureStore) Append(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *captureStore) list() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

type captureSink struct {
	mu        sync.Mutex
	events    []Event
	failFirst int
	attempts  int
}

func (c *captureSink) Publish(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	if c.attempts <= c.failFirst {
		return errors.New("stream down")
	}
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *captureSink) list() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

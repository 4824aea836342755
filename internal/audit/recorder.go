package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"idlink/internal/platform/metrics"
	"idlink/pkg/requestcontext"
)

// Recorder accepts events from request paths without ever blocking them.
// Events land in a bounded inbox drained by the Worker; when the inbox is
// full the event is dropped and counted, and the request proceeds. A nil
// Recorder swallows everything, so auditing can be left unwired in tests.
type Recorder struct {
	inbox   chan Event
	fp      *Fingerprinter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder builds a Recorder with the given inbox capacity.
func NewRecorder(bufferSize int, fp *Fingerprinter, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Recorder{
		inbox:   make(chan Event, bufferSize),
		fp:      fp,
		logger:  logger,
		metrics: m,
	}
}

// Record enqueues an event, stamping identity and request metadata from the
// context. Never blocks; a full inbox drops the event.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.DeviceSummary(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		r.metrics.IncrementAuditDropped()
		r.logger.Warn("audit inbox full, dropping event", "action", event.Action)
	}
}

// Fingerprint digests a contact value for inclusion in an event. Returns ""
// when the recorder or fingerprinting is unconfigured.
func (r *Recorder) Fingerprint(value *string) string {
	if r == nil {
		return ""
	}
	return r.fp.Fingerprint(value)
}

// Inbox exposes the event stream for the Worker.
func (r *Recorder) Inbox() <-chan Event {
	return r.inbox
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"idlink/internal/audit"
	txcontext "idlink/pkg/platform/tx"
)

// PostgresStore implements audit.Store using the transactional outbox
// pattern: events land in the audit_outbox table and downstream consumers
// read the stream from there.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL audit store that writes to the
// outbox.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the outbox table when it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_outbox_created_at
			ON audit_outbox (created_at);
	`)
	if err != nil {
		return fmt.Errorf("migrate audit outbox: %w", err)
	}
	return nil
}

// Append writes an audit event to the outbox table.
func (s *PostgresStore) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := event.ID
	if event.PrimaryContactID != 0 {
		aggregateType = "contact"
		aggregateID = strconv.FormatInt(event.PrimaryContactID, 10)
	}

	// ExecutorFor joins a transaction the caller opened when one rides the
	// context, so the outbox entry commits atomically with the caller's writes.
	_, err = txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		aggregateType,
		aggregateID,
		string(event.Action),
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events from the outbox, oldest first. A
// non-positive limit returns everything.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	var window any
	if limit > 0 {
		window = limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM audit_outbox
		ORDER BY created_at DESC, id
		LIMIT $1
	`, window)
	if err != nil {
		return nil, fmt.Errorf("query outbox entries: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		var event audit.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}

	// Newest-first from the query; flip so callers read in append order.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"idlink/internal/contact/models"
	"idlink/pkg/platform/sentinel"
	"idlink/pkg/requestcontext"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so one
// store implementation serves pooled reads and transactional units alike.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const contactColumns = `id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at`

// PostgresStore persists the contact graph in PostgreSQL.
type PostgresStore struct {
	q querier
}

// NewPostgresStore creates a store over a connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{q: pool}
}

// newPostgresTxStore creates a store view over an open transaction.
func newPostgresTxStore(tx pgx.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

// Migrate creates the contacts table and its indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id BIGSERIAL PRIMARY KEY,
			email TEXT,
			phone_number TEXT,
			linked_id BIGINT REFERENCES contacts(id),
			link_precedence TEXT NOT NULL CHECK (link_precedence IN ('primary', 'secondary')),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts (email) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_phone_number ON contacts (phone_number) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_linked_id ON contacts (linked_id) WHERE deleted_at IS NULL`,
	}
	for _, stmt := range stmts {
		if _, err := s.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate contacts: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByMatch(ctx context.Context, obs models.Observation) ([]*models.Contact, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE deleted_at IS NULL
		  AND (email = $1 OR phone_number = $2)
		ORDER BY created_at, id
	`, obs.Email, obs.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("query contacts by match: %w", err)
	}
	return scanContacts(rows)
}

func (s *PostgresStore) FindByGroupIDs(ctx context.Context, primaryIDs []int64) ([]*models.Contact, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE deleted_at IS NULL
		  AND (id = ANY($1) OR linked_id = ANY($1))
		ORDER BY created_at, id
	`, primaryIDs)
	if err != nil {
		return nil, fmt.Errorf("query contacts by group: %w", err)
	}
	return scanContacts(rows)
}

func (s *PostgresStore) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	now := requestcontext.Now(ctx)
	createdAt := contact.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := contact.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	row := s.q.QueryRow(ctx, `
		INSERT INTO contacts (email, phone_number, linked_id, link_precedence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+contactColumns,
		contact.Email,
		contact.PhoneNumber,
		contact.LinkedID,
		string(contact.LinkPrecedence),
		createdAt,
		updatedAt,
	)
	created, err := scanContact(row)
	if err != nil {
		return nil, wrapPgErr("insert contact", err)
	}
	return created, nil
}

func (s *PostgresStore) DemoteToSecondary(ctx context.Context, id, newPrimaryID int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE contacts
		SET link_precedence = 'secondary', linked_id = $2, updated_at = $3
		WHERE id = $1 AND link_precedence = 'primary' AND deleted_at IS NULL
	`, id, newPrimaryID, requestcontext.Now(ctx))
	if err != nil {
		return wrapPgErr(fmt.Sprintf("demote contact %d", id), err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyDemoteMiss(ctx, id)
	}
	return nil
}

// classifyDemoteMiss decides whether a demotion matched nothing because the
// contact is gone or because it already lost its primary status to a
// concurrent merge.
func (s *PostgresStore) classifyDemoteMiss(ctx context.Context, id int64) error {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("probe contact %d: %w", id, err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) RepointSecondaries(ctx context.Context, oldPrimaryID, newPrimaryID int64) (int64, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE contacts
		SET linked_id = $2, updated_at = $3
		WHERE linked_id = $1 AND link_precedence = 'secondary' AND deleted_at IS NULL
	`, oldPrimaryID, newPrimaryID, requestcontext.Now(ctx))
	if err != nil {
		return 0, wrapPgErr(fmt.Sprintf("repoint secondaries of %d", oldPrimaryID), err)
	}
	return tag.RowsAffected(), nil
}

// Health verifies the store can serve a trivial query.
func (s *PostgresStore) Health(ctx context.Context) error {
	var one int
	if err := s.q.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("contact store health: %w", err)
	}
	return nil
}

func scanContacts(rows pgx.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	var out []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}

func scanContact(row pgx.Row) (*models.Contact, error) {
	var c models.Contact
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.PhoneNumber,
		&c.LinkedID,
		&c.LinkPrecedence,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	return &c, nil
}

// wrapPgErr maps constraint violations onto sentinel errors and wraps the
// rest with operation context.
func wrapPgErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idlink/internal/audit"
	"idlink/internal/audit/store"
	txcontext "idlink/pkg/platform/tx"
	"idlink/pkg/testutil/containers"
)

type PostgresAuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditStoreSuite))
}

func (s *PostgresAuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgresStore(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresAuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_outbox"))
}

func (s *PostgresAuditStoreSuite) TestAppendRoundTrip() {
	ctx := context.Background()
	event := audit.Event{
		ID:               "f6c1a9de-0000-4000-8000-000000000001",
		Action:           audit.ActionIdentityMerged,
		Timestamp:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		PrimaryContactID: 7,
		CreatedContactID: 12,
		MergedPrimaryIDs: []int64{3},
		EmailFingerprint: "feed",
		RequestID:        "req-1",
	}

	s.Require().NoError(s.store.Append(ctx, event))

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(event.ID, events[0].ID)
	s.Equal(event.Action, events[0].Action)
	s.Equal(event.PrimaryContactID, events[0].PrimaryContactID)
	s.Equal(event.MergedPrimaryIDs, events[0].MergedPrimaryIDs)
	s.Equal(event.EmailFingerprint, events[0].EmailFingerprint)
	s.True(event.Timestamp.Equal(events[0].Timestamp))
}

func (s *PostgresAuditStoreSuite) TestAppendAssignsMissingID() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action:    audit.ActionContactCreated,
		Timestamp: time.Now().UTC(),
	}))

	events, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.NotEmpty(events[0].ID)
}

func (s *PostgresAuditStoreSuite) TestAggregateMapping() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action:           audit.ActionIdentityExtended,
		Timestamp:        time.Now().UTC(),
		PrimaryContactID: 42,
	}))

	var aggregateType, aggregateID string
	err := s.postgres.DB.QueryRowContext(ctx, `
		SELECT aggregate_type, aggregate_id FROM audit_outbox LIMIT 1
	`).Scan(&aggregateType, &aggregateID)
	s.Require().NoError(err)
	s.Equal("contact", aggregateType)
	s.Equal("42", aggregateID)
}

func (s *PostgresAuditStoreSuite) TestListRecentOrdersOldestFirst() {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Action:    audit.ActionContactCreated,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			RequestID: string(rune('a' + i)),
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("b", events[0].RequestID)
	s.Equal("c", events[1].RequestID)
}

func (s *PostgresAuditStoreSuite) TestJoinsCallerTransaction() {
	ctx := context.Background()

	s.Run("rolled back with the caller", func() {
		tx, err := s.postgres.DB.BeginTx(ctx, nil)
		s.Require().NoError(err)

		err = s.store.Append(txcontext.WithTx(ctx, tx), audit.Event{
			Action:    audit.ActionContactCreated,
			Timestamp: time.Now().UTC(),
		})
		s.Require().NoError(err)
		s.Require().NoError(tx.Rollback())

		events, err := s.store.ListRecent(ctx, 10)
		s.Require().NoError(err)
		s.Empty(events)
	})

	s.Run("committed with the caller", func() {
		tx, err := s.postgres.DB.BeginTx(ctx, nil)
		s.Require().NoError(err)

		err = s.store.Append(txcontext.WithTx(ctx, tx), audit.Event{
			Action:    audit.ActionContactCreated,
			Timestamp: time.Now().UTC(),
		})
		s.Require().NoError(err)
		s.Require().NoError(tx.Commit())

		events, err := s.store.ListRecent(ctx, 10)
		s.Require().NoError(err)
		s.Len(events, 1)
	})
}

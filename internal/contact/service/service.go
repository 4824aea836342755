package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idlink/internal/audit"
	"idlink/internal/contact/metrics"
	"idlink/internal/contact/models"
	dErrors "idlink/pkg/domain-errors"
	"idlink/pkg/platform/sentinel"
)

// Store is the contact persistence surface the service works against. The
// pooled store satisfies it directly and the view handed to RunInTx
// callbacks satisfies it inside a transaction.
//
// FindByGroupIDs returns every visible row that is one of primaryIDs or
// links to one, ordered by creation time with ties broken by row ID.
type Store interface {
	FindByMatch(ctx context.Context, obs models.Observation) ([]*models.Contact, error)
	FindByGroupIDs(ctx context.Context, primaryIDs []int64) ([]*models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	DemoteToSecondary(ctx context.Context, id, newPrimaryID int64) error
	RepointSecondaries(ctx context.Context, oldPrimaryID, newPrimaryID int64) (int64, error)
}

// StoreTx runs fn against a transactional store view. Everything fn does
// through the view commits atomically or not at all.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// Service resolves observations against the identity graph. Each sighting
// either starts a new identity, extends an existing one, merges two that
// turned out to be the same person, or changes nothing.
type Service struct {
	tx       StoreTx
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder *audit.Recorder
	tracer   trace.Tracer
}

func New(tx StoreTx, logger *slog.Logger, m *metrics.Metrics, recorder *audit.Recorder) *Service {
	return &Service{
		tx:       tx,
		logger:   logger,
		metrics:  m,
		recorder: recorder,
		tracer:   otel.Tracer("idlink/contact"),
	}
}

// Identify applies one observation to the identity graph and returns the
// consolidated view of the group it landed in. Linking and view building
// share one transaction, so the view always reflects the state this
// observation produced.
func (s *Service) Identify(ctx context.Context, obs models.Observation) (*models.ConsolidatedContact, error) {
	ctx, span := s.tracer.Start(ctx, "contact.identify")
	defer span.End()

	var (
		res  resolution
		view *models.ConsolidatedContact
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		linked, err := s.link(ctx, store, obs)
		if err != nil {
			return err
		}
		res = linked

		v, err := s.consolidate(ctx, store, res.primaryID)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "identify failed")
		return nil, translateStoreErr(err)
	}

	span.SetAttributes(
		attribute.String("resolution.outcome", res.outcome),
		attribute.Int64("contact.primary_id", res.primaryID),
	)
	s.observe(ctx, obs, res)
	return view, nil
}

// observe emits metrics, logs, and the audit event for a finished
// resolution.
func (s *Service) observe(ctx context.Context, obs models.Observation, res resolution) {
	s.metrics.IncrementResolution(res.outcome)

	s.recorder.Record(ctx, audit.Event{
		Action:           res.action(),
		PrimaryContactID: res.primaryID,
		CreatedContactID: res.createdID,
		MergedPrimaryIDs: res.mergedPrimaryIDs,
		EmailFingerprint: s.recorder.Fingerprint(obs.Email),
		PhoneFingerprint: s.recorder.Fingerprint(obs.PhoneNumber),
	})

	if res.outcome == metrics.OutcomeMerged {
		s.logger.Info("identity groups merged",
			"surviving_primary_id", res.primaryID,
			"absorbed_primary_ids", res.mergedPrimaryIDs,
			"repointed_secondaries", res.repointed,
		)
		return
	}
	s.logger.Debug("observation resolved",
		"outcome", res.outcome,
		"primary_contact_id", res.primaryID,
	)
}

// translateStoreErr maps sentinel store errors onto coded domain errors.
// Errors that already carry a code pass through untouched.
func translateStoreErr(err error) error {
	var derr *dErrors.Error
	if errors.As(err, &derr) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "contact graph changed concurrently")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "contact not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "contact store unavailable")
	}
}

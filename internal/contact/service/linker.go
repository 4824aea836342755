package service

import (
	"context"

	"idlink/internal/audit"
	"idlink/internal/contact/metrics"
	"idlink/internal/contact/models"
	dErrors "idlink/pkg/domain-errors"
	"idlink/pkg/requestcontext"
)

// resolution describes what one observation did to the graph.
type resolution struct {
	outcome          string
	primaryID        int64
	createdID        int64
	mergedPrimaryIDs []int64
	repointed        int64
}

func (r resolution) action() audit.Action {
	switch r.outcome {
	case metrics.OutcomeCreated:
		return audit.ActionContactCreated
	case metrics.OutcomeMerged:
		return audit.ActionIdentityMerged
	case metrics.OutcomeDuplicate:
		return audit.ActionIdentityDuplicate
	default:
		return audit.ActionIdentityExtended
	}
}

// link applies the linking rules to one observation. Callers run it inside
// a transaction; every read here sees the graph the writes will commit to.
//
// The order matters: an exact duplicate row wins before anything else, a
// multi-group match merges before the observation row is written, and the
// observation row always links to the group anchor so chains stay one level
// deep.
func (s *Service) link(ctx context.Context, store Store, obs models.Observation) (resolution, error) {
	matches, err := store.FindByMatch(ctx, obs)
	if err != nil {
		return resolution{}, err
	}

	if len(matches) == 0 {
		created, err := store.Create(ctx, s.newContact(ctx, obs, nil))
		if err != nil {
			return resolution{}, err
		}
		s.metrics.IncrementContactsCreated(string(models.LinkPrecedencePrimary))
		return resolution{
			outcome:   metrics.OutcomeCreated,
			primaryID: created.ID,
			createdID: created.ID,
		}, nil
	}

	primaryIDs := collectPrimaryIDs(matches)
	group, err := store.FindByGroupIDs(ctx, primaryIDs)
	if err != nil {
		return resolution{}, err
	}
	if len(group) == 0 {
		return resolution{}, dErrors.New(dErrors.CodeInvariantViolation, "matched contacts disappeared during resolution")
	}

	// When every primary in the chain is gone (soft-deleted out from under
	// its secondaries) the earliest survivor stands in as the anchor.
	anchor, ok := oldestAnchor(group)
	anchorID := group[0].ID
	if ok {
		anchorID = anchor.ID
	} else {
		s.logger.Warn("identity group has no visible primary", "group_ids", rowIDs(group))
		s.metrics.IncrementInvariantAnomaly("missing_primary")
	}

	for _, row := range group {
		if row.Matches(obs) {
			return resolution{outcome: metrics.OutcomeDuplicate, primaryID: anchorID}, nil
		}
	}

	res := resolution{outcome: metrics.OutcomeExtended, primaryID: anchorID}

	if len(primaryIDs) > 1 {
		// One field can only ever match rows that already share that field,
		// so a legitimate merge needs both fields and exactly two groups.
		if len(primaryIDs) > 2 || !obs.HasBoth() {
			s.logger.Warn("matched contact rows span unlinked groups",
				"anchor_ids", primaryIDs,
				"has_both_fields", obs.HasBoth(),
			)
			s.metrics.IncrementInvariantAnomaly("multi_group")
		}
		if ok {
			absorbed, repointed, err := s.merge(ctx, store, group, primaryIDs, anchor)
			if err != nil {
				return resolution{}, err
			}
			res.outcome = metrics.OutcomeMerged
			res.mergedPrimaryIDs = absorbed
			res.repointed = repointed
		}
	}

	created, err := store.Create(ctx, s.newContact(ctx, obs, &anchorID))
	if err != nil {
		return resolution{}, err
	}
	s.metrics.IncrementContactsCreated(string(models.LinkPrecedenceSecondary))
	res.createdID = created.ID
	return res, nil
}

// merge collapses every matched group into the survivor's: each non-survivor
// anchor is demoted to a secondary of the survivor and its secondaries are
// repointed, so chains stay one level deep.
func (s *Service) merge(ctx context.Context, store Store, group []*models.Contact, primaryIDs []int64, survivor *models.Contact) ([]int64, int64, error) {
	byID := make(map[int64]*models.Contact, len(group))
	for _, row := range group {
		byID[row.ID] = row
	}

	var (
		absorbed  []int64
		repointed int64
	)
	for _, pid := range primaryIDs {
		if pid == survivor.ID {
			continue
		}
		if row, found := byID[pid]; found && row.IsPrimary() {
			if err := store.DemoteToSecondary(ctx, pid, survivor.ID); err != nil {
				return nil, 0, err
			}
		}
		n, err := store.RepointSecondaries(ctx, pid, survivor.ID)
		if err != nil {
			return nil, 0, err
		}
		absorbed = append(absorbed, pid)
		repointed += n
		s.metrics.IncrementMerges()
	}
	return absorbed, repointed, nil
}

// newContact builds the row an observation writes. Secondaries carry the
// anchor they link to; primaries carry none.
func (s *Service) newContact(ctx context.Context, obs models.Observation, linkedID *int64) *models.Contact {
	now := requestcontext.Now(ctx)
	precedence := models.LinkPrecedencePrimary
	if linkedID != nil {
		precedence = models.LinkPrecedenceSecondary
	}
	return &models.Contact{
		Email:          obs.Email,
		PhoneNumber:    obs.PhoneNumber,
		LinkedID:       linkedID,
		LinkPrecedence: precedence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// oldestAnchor returns the oldest visible primary in the group, or false
// when the group has none.
func oldestAnchor(group []*models.Contact) (*models.Contact, bool) {
	var anchor *models.Contact
	for _, row := range group {
		if !row.IsPrimary() {
			continue
		}
		if anchor == nil || row.OlderThan(anchor) {
			anchor = row
		}
	}
	return anchor, anchor != nil
}

// collectPrimaryIDs gathers the distinct group anchors the matched rows
// point at, in match order.
func collectPrimaryIDs(matches []*models.Contact) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, row := range matches {
		pid := row.PrimaryID()
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		ids = append(ids, pid)
	}
	return ids
}

func rowIDs(group []*models.Contact) []int64 {
	ids := make([]int64, 0, len(group))
	for _, row := range group {
		ids = append(ids, row.ID)
	}
	return ids
}

func countPrimaries(group []*models.Contact) int {
	n := 0
	for _, row := range group {
		if row.IsPrimary() {
			n++
		}
	}
	return n
}

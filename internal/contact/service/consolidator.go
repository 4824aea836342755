package service

import (
	"context"

	"idlink/internal/contact/models"
	dErrors "idlink/pkg/domain-errors"
	pkgstrings "idlink/pkg/platform/strings"
)

// consolidate builds the merged view of the group anchored at primaryID.
// The anchor's values lead each slice; the rest follow in recording order
// with duplicates removed.
func (s *Service) consolidate(ctx context.Context, store Store, primaryID int64) (*models.ConsolidatedContact, error) {
	group, err := store.FindByGroupIDs(ctx, []int64{primaryID})
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "identity group not found")
	}

	anchor, ok := oldestAnchor(group)
	switch {
	case !ok:
		s.logger.Warn("consolidating group without a visible primary", "group_ids", rowIDs(group))
		s.metrics.IncrementInvariantAnomaly("missing_primary")
		anchor = group[0]
	case countPrimaries(group) > 1:
		s.logger.Warn("consolidating group with multiple primaries", "group_ids", rowIDs(group), "anchor_id", anchor.ID)
		s.metrics.IncrementInvariantAnomaly("multi_primary")
	}

	emails := make([]string, 0, len(group))
	phones := make([]string, 0, len(group))
	secondaryIDs := make([]int64, 0, len(group))

	if anchor.Email != nil {
		emails = append(emails, *anchor.Email)
	}
	if anchor.PhoneNumber != nil {
		phones = append(phones, *anchor.PhoneNumber)
	}
	// group arrives in ascending creation order, which is exactly the order
	// the view wants for everything after the anchor's own values.
	for _, row := range group {
		if row.ID == anchor.ID {
			continue
		}
		if row.Email != nil {
			emails = append(emails, *row.Email)
		}
		if row.PhoneNumber != nil {
			phones = append(phones, *row.PhoneNumber)
		}
		secondaryIDs = append(secondaryIDs, row.ID)
	}

	return &models.ConsolidatedContact{
		PrimaryContactID:    anchor.ID,
		Emails:              pkgstrings.DedupeInOrder(emails),
		PhoneNumbers:        pkgstrings.DedupeInOrder(phones),
		SecondaryContactIDs: secondaryIDs,
	}, nil
}

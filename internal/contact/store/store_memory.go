package store

import (
	"context"
	"sort"
	"sync"

	"idlink/internal/contact/models"
	"idlink/pkg/platform/sentinel"
	"idlink/pkg/requestcontext"
)

// InMemoryStore keeps the contact graph in memory. It backs deployments
// without a database and most unit tests. Public methods lock on their own;
// the unexported *Locked methods assume the caller already holds the write
// lock, which is how InMemoryTx composes multi-step units.
type InMemoryStore struct {
	mu       sync.RWMutex
	contacts map[int64]*models.Contact
	nextID   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		contacts: make(map[int64]*models.Contact),
		nextID:   1,
	}
}

func (s *InMemoryStore) FindByMatch(ctx context.Context, obs models.Observation) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByMatchLocked(ctx, obs)
}

func (s *InMemoryStore) FindByGroupIDs(ctx context.Context, primaryIDs []int64) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByGroupIDsLocked(ctx, primaryIDs)
}

func (s *InMemoryStore) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, contact)
}

func (s *InMemoryStore) DemoteToSecondary(ctx context.Context, id, newPrimaryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.demoteToSecondaryLocked(ctx, id, newPrimaryID)
}

func (s *InMemoryStore) RepointSecondaries(ctx context.Context, oldPrimaryID, newPrimaryID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repointSecondariesLocked(ctx, oldPrimaryID, newPrimaryID)
}

// Clear empties the store between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = make(map[int64]*models.Contact)
	s.nextID = 1
}

func (s *InMemoryStore) findByMatchLocked(_ context.Context, obs models.Observation) ([]*models.Contact, error) {
	var out []*models.Contact
	for _, c := range s.contacts {
		if c.DeletedAt != nil {
			continue
		}
		emailHit := obs.Email != nil && c.Email != nil && *c.Email == *obs.Email
		phoneHit := obs.PhoneNumber != nil && c.PhoneNumber != nil && *c.PhoneNumber == *obs.PhoneNumber
		if emailHit || phoneHit {
			out = append(out, c.Clone())
		}
	}
	sortByAge(out)
	return out, nil
}

func (s *InMemoryStore) findByGroupIDsLocked(_ context.Context, primaryIDs []int64) ([]*models.Contact, error) {
	idSet := make(map[int64]struct{}, len(primaryIDs))
	for _, id := range primaryIDs {
		idSet[id] = struct{}{}
	}

	var out []*models.Contact
	for _, c := range s.contacts {
		if c.DeletedAt != nil {
			continue
		}
		if _, hit := idSet[c.ID]; hit {
			out = append(out, c.Clone())
			continue
		}
		if c.LinkedID != nil {
			if _, hit := idSet[*c.LinkedID]; hit {
				out = append(out, c.Clone())
			}
		}
	}
	sortByAge(out)
	return out, nil
}

func (s *InMemoryStore) createLocked(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	row := contact.Clone()
	row.ID = s.nextID
	s.nextID++

	if row.CreatedAt.IsZero() {
		row.CreatedAt = requestcontext.Now(ctx)
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	if row.LinkPrecedence == "" {
		row.LinkPrecedence = models.LinkPrecedencePrimary
	}

	s.contacts[row.ID] = row
	return row.Clone(), nil
}

func (s *InMemoryStore) demoteToSecondaryLocked(ctx context.Context, id, newPrimaryID int64) error {
	c, found := s.contacts[id]
	if !found || c.DeletedAt != nil {
		return sentinel.ErrNotFound
	}
	if !c.IsPrimary() {
		return sentinel.ErrConflict
	}

	target := newPrimaryID
	c.LinkPrecedence = models.LinkPrecedenceSecondary
	c.LinkedID = &target
	c.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryStore) repointSecondariesLocked(ctx context.Context, oldPrimaryID, newPrimaryID int64) (int64, error) {
	var n int64
	for _, c := range s.contacts {
		if c.DeletedAt != nil || c.LinkPrecedence != models.LinkPrecedenceSecondary {
			continue
		}
		if c.LinkedID == nil || *c.LinkedID != oldPrimaryID {
			continue
		}
		target := newPrimaryID
		c.LinkedID = &target
		c.UpdatedAt = requestcontext.Now(ctx)
		n++
	}
	return n, nil
}

// memorySnapshot captures the store state so a failed transactional unit can
// roll back.
type memorySnapshot struct {
	contacts map[int64]*models.Contact
	nextID   int64
}

func (s *InMemoryStore) snapshotLocked() memorySnapshot {
	dup := make(map[int64]*models.Contact, len(s.contacts))
	for id, c := range s.contacts {
		dup[id] = c.Clone()
	}
	return memorySnapshot{contacts: dup, nextID: s.nextID}
}

func (s *InMemoryStore) restoreLocked(snap memorySnapshot) {
	s.contacts = snap.contacts
	s.nextID = snap.nextID
}

func sortByAge(rows []*models.Contact) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].OlderThan(rows[j])
	})
}

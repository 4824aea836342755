package store

import (
	"context"
	"time"

	"idlink/internal/contact/models"
	"idlink/internal/contact/service"
	dErrors "idlink/pkg/domain-errors"
)

// defaultTxTimeout bounds a linking unit that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

var (
	_ service.StoreTx = (*InMemoryTx)(nil)
	_ service.Store   = (*InMemoryStore)(nil)
	_ service.Store   = (*memoryTxView)(nil)
)

// InMemoryTx serializes linking units against a single InMemoryStore. It
// holds the store's write lock for the whole unit, so concurrent readers
// never observe a half-merged group, and restores a snapshot when the unit
// fails so partial writes never stick.
type InMemoryTx struct {
	store   *InMemoryStore
	timeout time.Duration
}

func NewInMemoryTx(store *InMemoryStore) *InMemoryTx {
	return &InMemoryTx{store: store}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	snap := t.store.snapshotLocked()
	if err := fn(&memoryTxView{store: t.store}); err != nil {
		t.store.restoreLocked(snap)
		return err
	}
	return nil
}

// memoryTxView adapts the store's unlocked internals to the Store interface
// for use inside a unit that already holds the write lock.
type memoryTxView struct {
	store *InMemoryStore
}

func (v *memoryTxView) FindByMatch(ctx context.Context, obs models.Observation) ([]*models.Contact, error) {
	return v.store.findByMatchLocked(ctx, obs)
}

func (v *memoryTxView) FindByGroupIDs(ctx context.Context, primaryIDs []int64) ([]*models.Contact, error) {
	return v.store.findByGroupIDsLocked(ctx, primaryIDs)
}

func (v *memoryTxView) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	return v.store.createLocked(ctx, contact)
}

func (v *memoryTxView) DemoteToSecondary(ctx context.Context, id, newPrimaryID int64) error {
	return v.store.demoteToSecondaryLocked(ctx, id, newPrimaryID)
}

func (v *memoryTxView) RepointSecondaries(ctx context.Context, oldPrimaryID, newPrimaryID int64) (int64, error) {
	return v.store.repointSecondariesLocked(ctx, oldPrimaryID, newPrimaryID)
}

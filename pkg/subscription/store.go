package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store persists subscriptions and the durable trial ledger.
//
// Writes are conditional: prevVersion is the Version the caller read (0 when
// no record existed). On success the store sets sub.Version to the new value;
// when the stored version differs it returns ErrConcurrentModification.
type Store interface {
	// Get returns the live record or ErrSubscriptionNotFound.
	Get(ctx context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error)

	// ListByOwner returns every live record of an owner.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Subscription, error)

	// HasUsedTrial consults the trial ledger, which survives deletion of the live record.
	HasUsedTrial(ctx context.Context, ownerID, pluginID uuid.UUID) (bool, error)

	// StartTrial claims the ledger entry for the owner and plugin and writes
	// sub in one atomic step. A second claim fails with ErrTrialAlreadyUsed.
	StartTrial(ctx context.Context, sub *Subscription, prevVersion int) error

	// Save inserts (prevVersion == 0) or conditionally updates sub.
	Save(ctx context.Context, sub *Subscription, prevVersion int) error

	// Delete removes the live record only; the trial ledger is kept.
	Delete(ctx context.Context, ownerID, pluginID uuid.UUID) error
}

package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/pg"
	"github.com/dmitrymomot/bookingkit/pkg/subscription"
)

// SubscriptionStore implements subscription.Store on Postgres. The trial
// ledger lives in plugin_trials, whose primary key makes a second claim fail.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a SubscriptionStore. Panics if pool is nil.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &SubscriptionStore{pool: pool}
}

const subscriptionColumns = `id, owner_id, plugin_id, status, is_trial, trial_ends_at, trial_used,
    current_period_start, current_period_end, processor_ref, cancelled_at, version, created_at, updated_at`

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub    subscription.Subscription
		status string
	)
	err := row.Scan(&sub.ID, &sub.OwnerID, &sub.PluginID, &status, &sub.IsTrial, &sub.TrialEndsAt, &sub.TrialUsed,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.ProcessorRef, &sub.CancelledAt, &sub.Version,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sub.Status = subscription.Status(status)
	return &sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, ownerID, pluginID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE owner_id = $1 AND plugin_id = $2`,
		ownerID, pluginID))
	if pg.IsNotFoundError(err) {
		return nil, subscription.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*subscription.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*subscription.Subscription, error) {
		return scanSubscription(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriptions: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionStore) HasUsedTrial(ctx context.Context, ownerID, pluginID uuid.UUID) (bool, error) {
	var used bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM plugin_trials WHERE owner_id = $1 AND plugin_id = $2)`,
		ownerID, pluginID).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check trial ledger: %w", err)
	}
	return used, nil
}

func (s *SubscriptionStore) StartTrial(ctx context.Context, sub *subscription.Subscription, prevVersion int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO plugin_trials (owner_id, plugin_id, claimed_at) VALUES ($1, $2, $3)`,
			sub.OwnerID, sub.PluginID, sub.UpdatedAt)
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrTrialAlreadyUsed
		}
		if err != nil {
			return fmt.Errorf("failed to claim trial: %w", err)
		}
		return writeSubscription(ctx, tx, sub, prevVersion)
	})
}

func (s *SubscriptionStore) Save(ctx context.Context, sub *subscription.Subscription, prevVersion int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if sub.TrialUsed {
			_, err := tx.Exec(ctx,
				`INSERT INTO plugin_trials (owner_id, plugin_id, claimed_at) VALUES ($1, $2, $3)
				 ON CONFLICT (owner_id, plugin_id) DO NOTHING`,
				sub.OwnerID, sub.PluginID, sub.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to record trial: %w", err)
			}
		}
		return writeSubscription(ctx, tx, sub, prevVersion)
	})
}

func (s *SubscriptionStore) Delete(ctx context.Context, ownerID, pluginID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE owner_id = $1 AND plugin_id = $2`, ownerID, pluginID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

// writeSubscription inserts sub when prevVersion is 0 and otherwise updates
// it only if the stored version still equals prevVersion.
func writeSubscription(ctx context.Context, tx pgx.Tx, sub *subscription.Subscription, prevVersion int) error {
	next := prevVersion + 1

	if prevVersion == 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO subscriptions (`+subscriptionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			sub.ID, sub.OwnerID, sub.PluginID, string(sub.Status), sub.IsTrial, sub.TrialEndsAt, sub.TrialUsed,
			sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.ProcessorRef, sub.CancelledAt, next,
			sub.CreatedAt, sub.UpdatedAt)
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrConcurrentModification
		}
		if err != nil {
			return fmt.Errorf("failed to insert subscription: %w", err)
		}
		sub.Version = next
		return nil
	}

	tag, err := tx.Exec(ctx, `
		UPDATE subscriptions SET
		    status = $3, is_trial = $4, trial_ends_at = $5, trial_used = trial_used OR $6,
		    current_period_start = $7, current_period_end = $8, processor_ref = $9,
		    cancelled_at = $10, version = $11, updated_at = $12
		WHERE id = $1 AND version = $2`,
		sub.ID, prevVersion, string(sub.Status), sub.IsTrial, sub.TrialEndsAt, sub.TrialUsed,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.ProcessorRef, sub.CancelledAt, next, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrConcurrentModification
	}
	sub.Version = next
	return nil
}

var _ subscription.Store = (*SubscriptionStore)(nil)

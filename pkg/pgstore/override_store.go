package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/access"
	"github.com/dmitrymomot/bookingkit/pkg/pg"
)

// OverrideStore implements access.OverrideStore on Postgres.
type OverrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore creates an OverrideStore. Panics if pool is nil.
func NewOverrideStore(pool *pgxpool.Pool) *OverrideStore {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &OverrideStore{pool: pool}
}

const overrideColumns = `member_id, owner_id, plugin_id, can_access, updated_at`

func (s *OverrideStore) Get(ctx context.Context, memberID, pluginID uuid.UUID) (*access.Override, error) {
	var o access.Override
	err := s.pool.QueryRow(ctx,
		`SELECT `+overrideColumns+` FROM plugin_overrides WHERE member_id = $1 AND plugin_id = $2`,
		memberID, pluginID).Scan(&o.MemberID, &o.OwnerID, &o.PluginID, &o.CanAccess, &o.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, access.ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	return &o, nil
}

func (s *OverrideStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]access.Override, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+overrideColumns+` FROM plugin_overrides WHERE member_id = $1 ORDER BY plugin_id`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	overrides, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (access.Override, error) {
		var o access.Override
		err := row.Scan(&o.MemberID, &o.OwnerID, &o.PluginID, &o.CanAccess, &o.UpdatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan overrides: %w", err)
	}
	return overrides, nil
}

const upsertOverride = `
INSERT INTO plugin_overrides (` + overrideColumns + `)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (member_id, plugin_id) DO UPDATE SET
    owner_id = EXCLUDED.owner_id,
    can_access = EXCLUDED.can_access,
    updated_at = EXCLUDED.updated_at`

// ApplyBatch writes every override in one transaction.
func (s *OverrideStore) ApplyBatch(ctx context.Context, overrides []access.Override) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, o := range overrides {
			batch.Queue(upsertOverride, o.MemberID, o.OwnerID, o.PluginID, o.CanAccess, o.UpdatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to apply overrides: %w", err)
		}
		return nil
	})
}

func (s *OverrideStore) DeleteByMember(ctx context.Context, memberID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM plugin_overrides WHERE member_id = $1`, memberID); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	return nil
}

func (s *OverrideStore) DeleteByOwnerPlugin(ctx context.Context, ownerID, pluginID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM plugin_overrides WHERE owner_id = $1 AND plugin_id = $2`, ownerID, pluginID); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	return nil
}

var _ access.OverrideStore = (*OverrideStore)(nil)

package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/bookingkit/pkg/catalog"
)

// CatalogSource loads the plugin catalog from the plugins table.
// It implements catalog.Source.
type CatalogSource struct {
	pool *pgxpool.Pool
}

// NewCatalogSource creates a CatalogSource. Panics if pool is nil.
func NewCatalogSource(pool *pgxpool.Pool) *CatalogSource {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &CatalogSource{pool: pool}
}

const selectPlugins = `
SELECT id, slug, name, category, price_amount, price_currency, price_id, features, is_active, is_featured
FROM plugins
ORDER BY slug`

func (s *CatalogSource) Load(ctx context.Context) ([]catalog.Plugin, error) {
	rows, err := s.pool.Query(ctx, selectPlugins)
	if err != nil {
		return nil, fmt.Errorf("failed to query plugins: %w", err)
	}

	plugins, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Plugin, error) {
		var (
			p        catalog.Plugin
			features []byte
		)
		if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Category, &p.Price.Amount, &p.Price.Currency,
			&p.PriceID, &features, &p.Active, &p.Featured); err != nil {
			return p, err
		}
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return p, fmt.Errorf("plugin %s: invalid features: %w", p.Slug, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan plugins: %w", err)
	}
	return plugins, nil
}

const upsertPlugin = `
INSERT INTO plugins (id, slug, name, category, price_amount, price_currency, price_id, features, is_active, is_featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    slug = EXCLUDED.slug,
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    price_amount = EXCLUDED.price_amount,
    price_currency = EXCLUDED.price_currency,
    price_id = EXCLUDED.price_id,
    features = EXCLUDED.features,
    is_active = EXCLUDED.is_active,
    is_featured = EXCLUDED.is_featured,
    updated_at = now()`

// Sync upserts plugins in one transaction. Plugins missing from the input
// are left untouched; retire them by marking them inactive.
func (s *CatalogSource) Sync(ctx context.Context, plugins []catalog.Plugin) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range plugins {
			features := p.Features
			if features == nil {
				features = []catalog.Feature{}
			}
			raw, err := json.Marshal(features)
			if err != nil {
				return fmt.Errorf("plugin %s: failed to encode features: %w", p.Slug, err)
			}
			batch.Queue(upsertPlugin, p.ID, p.Slug, p.Name, p.Category, p.Price.Amount, p.Price.Currency,
				p.PriceID, raw, p.Active, p.Featured)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to sync plugins: %w", err)
		}
		return nil
	})
}

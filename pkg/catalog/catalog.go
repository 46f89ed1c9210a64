package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/clock"
	"github.com/dmitrymomot/bookingkit/pkg/logger"
)

// Catalog is a validated in-memory index of plugins loaded from a Source.
// It is safe for concurrent use.
type Catalog struct {
	src             Source
	clock           clock.Clock
	logger          *slog.Logger
	refreshInterval time.Duration

	mu      sync.RWMutex
	byID    map[uuid.UUID]Plugin
	bySlug  map[string]uuid.UUID
	ordered []Plugin
	// checkedAt is the last successful load or lazy refresh attempt.
	checkedAt time.Time

	refreshing atomic.Bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the time source used for refresh scheduling.
func WithClock(c clock.Clock) Option {
	return func(cat *Catalog) {
		if c != nil {
			cat.clock = c
		}
	}
}

// WithLogger sets the logger used to report failed background refreshes.
func WithLogger(logger *slog.Logger) Option {
	return func(cat *Catalog) {
		if logger != nil {
			cat.logger = logger
		}
	}
}

// WithRefreshInterval makes the catalog reload from its source on the first
// read after interval has elapsed. No goroutine is started; a failed refresh
// keeps serving the previous snapshot and is retried after another interval.
func WithRefreshInterval(interval time.Duration) Option {
	return func(cat *Catalog) {
		cat.refreshInterval = interval
	}
}

// New loads the catalog from src and validates it.
func New(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	if src == nil {
		panic("catalog: source is required")
	}

	c := &Catalog{
		src:    src,
		clock:  clock.New(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the index with a fresh snapshot from the source.
// On error the current snapshot is kept.
func (c *Catalog) Reload(ctx context.Context) error {
	plugins, err := c.src.Load(ctx)
	if err != nil {
		return errors.Join(ErrFailedToLoadCatalog, err)
	}

	byID, bySlug, err := index(plugins)
	if err != nil {
		return err
	}

	ordered := slices.Clone(plugins)
	slices.SortFunc(ordered, func(a, b Plugin) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		if n := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); n != 0 {
			return n
		}
		return cmp.Compare(a.Slug, b.Slug)
	})

	c.mu.Lock()
	c.byID = byID
	c.bySlug = bySlug
	c.ordered = ordered
	c.checkedAt = c.clock.Now()
	c.mu.Unlock()

	return nil
}

// Get returns the plugin with the given id.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (Plugin, error) {
	c.maybeRefresh(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return Plugin{}, ErrPluginNotFound
	}
	return p, nil
}

// GetBySlug returns the plugin with the given slug.
func (c *Catalog) GetBySlug(ctx context.Context, slug string) (Plugin, error) {
	c.maybeRefresh(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.bySlug[slug]
	if !ok {
		return Plugin{}, ErrPluginNotFound
	}
	return c.byID[id], nil
}

// List returns every plugin, featured first and then by name.
func (c *Catalog) List(ctx context.Context) []Plugin {
	c.maybeRefresh(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.ordered)
}

func (c *Catalog) maybeRefresh(ctx context.Context) {
	if c.refreshInterval <= 0 {
		return
	}

	c.mu.RLock()
	stale := c.clock.Since(c.checkedAt) >= c.refreshInterval
	c.mu.RUnlock()

	// Only one reader refreshes, the rest keep serving the current snapshot.
	if !stale || !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer c.refreshing.Store(false)

	c.mu.Lock()
	c.checkedAt = c.clock.Now()
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil {
		c.logger.WarnContext(ctx, "plugin catalog refresh failed", logger.Error(err))
	}
}

func index(plugins []Plugin) (map[uuid.UUID]Plugin, map[string]uuid.UUID, error) {
	byID := make(map[uuid.UUID]Plugin, len(plugins))
	bySlug := make(map[string]uuid.UUID, len(plugins))

	for i, p := range plugins {
		switch {
		case p.ID == uuid.Nil:
			return nil, nil, fmt.Errorf("%w: plugins[%d] has no id", ErrInvalidCatalog, i)
		case strings.TrimSpace(p.Slug) == "":
			return nil, nil, fmt.Errorf("%w: plugins[%d] has no slug", ErrInvalidCatalog, i)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidCatalog, p.ID)
		}
		if _, dup := bySlug[p.Slug]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate slug %q", ErrInvalidCatalog, p.Slug)
		}
		byID[p.ID] = p
		bySlug[p.Slug] = p.ID
	}

	return byID, bySlug, nil
}

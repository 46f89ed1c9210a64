package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/bookingkit/pkg/logger"
)

// Cache is a byte-oriented key/value store. Get returns nil, nil on a miss.
// redis.Storage satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DefaultCacheKey is the key the catalog payload is stored under.
const DefaultCacheKey = "catalog:plugins"

// CachedSource serves the catalog from a shared cache and falls back to the
// wrapped source on a miss. Cache failures degrade to a direct load.
type CachedSource struct {
	src    Source
	cache  Cache
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// CachedSourceOption configures a CachedSource.
type CachedSourceOption func(*CachedSource)

// WithCacheKey overrides DefaultCacheKey.
func WithCacheKey(key string) CachedSourceOption {
	return func(s *CachedSource) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCacheLogger sets the logger used to report cache failures.
func WithCacheLogger(logger *slog.Logger) CachedSourceOption {
	return func(s *CachedSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCachedSource wraps src with cache. A zero ttl stores entries without expiration.
func NewCachedSource(src Source, cache Cache, ttl time.Duration, opts ...CachedSourceOption) *CachedSource {
	if src == nil {
		panic("catalog: source is required")
	}
	if cache == nil {
		panic("catalog: cache is required")
	}

	s := &CachedSource{
		src:    src,
		cache:  cache,
		key:    DefaultCacheKey,
		ttl:    ttl,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached catalog or loads and caches it.
func (s *CachedSource) Load(ctx context.Context) ([]Plugin, error) {
	if data, err := s.cache.Get(ctx, s.key); err != nil {
		s.logger.WarnContext(ctx, "catalog cache read failed", slog.String("key", s.key), logger.Error(err))
	} else if data != nil {
		var plugins []Plugin
		if err := json.Unmarshal(data, &plugins); err == nil {
			return plugins, nil
		}
		s.logger.WarnContext(ctx, "catalog cache entry is corrupted", slog.String("key", s.key))
	}

	plugins, err := s.src.Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(plugins)
	if err != nil {
		return plugins, nil
	}
	if err := s.cache.Set(ctx, s.key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "catalog cache write failed", slog.String("key", s.key), logger.Error(err))
	}

	return plugins, nil
}

// Invalidate drops the cached payload so the next Load hits the wrapped source.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}

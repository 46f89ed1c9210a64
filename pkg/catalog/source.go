package catalog

import (
	"context"
	"slices"
)

// Source loads the full list of catalog plugins.
type Source interface {
	Load(ctx context.Context) ([]Plugin, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Plugin, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) ([]Plugin, error) {
	return f(ctx)
}

type inMemSource struct {
	plugins []Plugin
}

// NewInMemSource creates a source that serves a fixed plugin list.
// Useful for tests and for catalogs compiled into the binary.
func NewInMemSource(plugins ...Plugin) Source {
	return &inMemSource{plugins: slices.Clone(plugins)}
}

// Load returns a copy so callers cannot mutate the source.
func (s *inMemSource) Load(ctx context.Context) ([]Plugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.plugins), nil
}

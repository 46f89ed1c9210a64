package access

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// OverrideStore persists plugin access overrides.
type OverrideStore interface {
	// Get returns the override of member for plugin or ErrOverrideNotFound.
	Get(ctx context.Context, memberID, pluginID uuid.UUID) (*Override, error)

	// ListByMember returns every override of a member.
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]Override, error)

	// ApplyBatch upserts all overrides or none of them. Readers never observe
	// a partially applied batch.
	ApplyBatch(ctx context.Context, overrides []Override) error

	DeleteByMember(ctx context.Context, memberID uuid.UUID) error
	DeleteByOwnerPlugin(ctx context.Context, ownerID, pluginID uuid.UUID) error
}

type overrideKey struct {
	member uuid.UUID
	plugin uuid.UUID
}

// MemoryStore is an in-process OverrideStore, safe for concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	overrides map[overrideKey]Override
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{overrides: make(map[overrideKey]Override)}
}

func (s *MemoryStore) Get(_ context.Context, memberID, pluginID uuid.UUID) (*Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overrides[overrideKey{memberID, pluginID}]
	if !ok {
		return nil, ErrOverrideNotFound
	}
	return &o, nil
}

func (s *MemoryStore) ListByMember(_ context.Context, memberID uuid.UUID) ([]Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Override, 0)
	for k, o := range s.overrides {
		if k.member == memberID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b Override) int {
		return slices.Compare(a.PluginID[:], b.PluginID[:])
	})
	return out, nil
}

func (s *MemoryStore) ApplyBatch(_ context.Context, overrides []Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range overrides {
		s.overrides[overrideKey{o.MemberID, o.PluginID}] = o
	}
	return nil
}

func (s *MemoryStore) DeleteByMember(_ context.Context, memberID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.overrides {
		if k.member == memberID {
			delete(s.overrides, k)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteByOwnerPlugin(_ context.Context, ownerID, pluginID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, o := range s.overrides {
		if o.OwnerID == ownerID && k.plugin == pluginID {
			delete(s.overrides, k)
		}
	}
	return nil
}

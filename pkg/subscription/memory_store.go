package subscription

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storeKey struct {
	owner  uuid.UUID
	plugin uuid.UUID
}

// MemoryStore is an in-process Store. It is safe for concurrent use and
// honours the same conditional-write contract as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[storeKey]*Subscription
	trials  map[storeKey]time.Time // trial ledger: claim time per owner and plugin
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[storeKey]*Subscription),
		trials:  make(map[storeKey]time.Time),
	}
}

func (m *MemoryStore) Get(_ context.Context, ownerID, pluginID uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.records[storeKey{ownerID, pluginID}]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Subscription, 0)
	for k, sub := range m.records {
		if k.owner == ownerID {
			out = append(out, sub.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Subscription) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) HasUsedTrial(_ context.Context, ownerID, pluginID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, used := m.trials[storeKey{ownerID, pluginID}]
	return used, nil
}

func (m *MemoryStore) StartTrial(_ context.Context, sub *Subscription, prevVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := storeKey{sub.OwnerID, sub.PluginID}
	if _, used := m.trials[k]; used {
		return ErrTrialAlreadyUsed
	}
	if err := m.checkVersion(k, prevVersion); err != nil {
		return err
	}

	m.trials[k] = sub.UpdatedAt
	m.write(k, sub, prevVersion)
	return nil
}

func (m *MemoryStore) Save(_ context.Context, sub *Subscription, prevVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := storeKey{sub.OwnerID, sub.PluginID}
	if err := m.checkVersion(k, prevVersion); err != nil {
		return err
	}

	if sub.TrialUsed {
		if _, used := m.trials[k]; !used {
			m.trials[k] = sub.UpdatedAt
		}
	}
	m.write(k, sub, prevVersion)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID, pluginID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := storeKey{ownerID, pluginID}
	if _, ok := m.records[k]; !ok {
		return ErrSubscriptionNotFound
	}
	delete(m.records, k)
	return nil
}

func (m *MemoryStore) checkVersion(k storeKey, prevVersion int) error {
	current, exists := m.records[k]
	switch {
	case prevVersion == 0 && exists:
		return ErrConcurrentModification
	case prevVersion != 0 && (!exists || current.Version != prevVersion):
		return ErrConcurrentModification
	}
	return nil
}

func (m *MemoryStore) write(k storeKey, sub *Subscription, prevVersion int) {
	sub.Version = prevVersion + 1
	m.records[k] = sub.Clone()
}

package team

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store, safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	members     map[uuid.UUID]*Member
	invitations map[uuid.UUID]*Invitation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:     make(map[uuid.UUID]*Member),
		invitations: make(map[uuid.UUID]*Invitation),
	}
}

func (s *MemoryStore) GetMember(_ context.Context, id uuid.UUID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) GetMemberByUser(_ context.Context, ownerID, userID uuid.UUID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members {
		if m.OwnerID == ownerID && m.UserID == userID {
			return m.Clone(), nil
		}
	}
	return nil, ErrMemberNotFound
}

func (s *MemoryStore) ListMembers(_ context.Context, ownerID uuid.UUID) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Member, 0)
	for _, m := range s.members {
		if m.OwnerID == ownerID {
			out = append(out, m.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Member) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) SaveMember(_ context.Context, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[m.ID] = m.Clone()
	return nil
}

func (s *MemoryStore) GetInvitation(_ context.Context, id uuid.UUID) (*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invitations[id]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	return inv.Clone(), nil
}

func (s *MemoryStore) ListInvitations(_ context.Context, ownerID uuid.UUID) ([]*Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Invitation, 0)
	for _, inv := range s.invitations {
		if inv.OwnerID == ownerID {
			out = append(out, inv.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Invitation) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateInvitation(_ context.Context, inv *Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invitations[inv.ID] = inv.Clone()
	return nil
}

func (s *MemoryStore) DeleteInvitation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invitations[id]; !ok {
		return ErrInvitationNotFound
	}
	delete(s.invitations, id)
	return nil
}

func (s *MemoryStore) AcceptInvitation(_ context.Context, inv *Invitation, m *Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.invitations[inv.ID]
	if !ok {
		return ErrInvitationNotFound
	}
	if stored.AcceptedAt != nil {
		return ErrInvitationAccepted
	}

	s.invitations[inv.ID] = inv.Clone()
	s.members[m.ID] = m.Clone()
	return nil
}

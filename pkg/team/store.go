package team

import (
	"context"

	"github.com/google/uuid"
)

// Store persists team members and invitations.
type Store interface {
	// GetMember returns the member or ErrMemberNotFound.
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)

	// GetMemberByUser returns the member record of user under owner,
	// active or not, or ErrMemberNotFound.
	GetMemberByUser(ctx context.Context, ownerID, userID uuid.UUID) (*Member, error)

	// ListMembers returns every member record of owner, oldest first.
	ListMembers(ctx context.Context, ownerID uuid.UUID) ([]*Member, error)

	// SaveMember inserts or updates m by ID.
	SaveMember(ctx context.Context, m *Member) error

	GetInvitation(ctx context.Context, id uuid.UUID) (*Invitation, error)
	ListInvitations(ctx context.Context, ownerID uuid.UUID) ([]*Invitation, error)
	CreateInvitation(ctx context.Context, inv *Invitation) error
	DeleteInvitation(ctx context.Context, id uuid.UUID) error

	// AcceptInvitation marks inv accepted and saves m in one atomic step.
	// Fails with ErrInvitationAccepted when inv was accepted concurrently.
	AcceptInvitation(ctx context.Context, inv *Invitation, m *Member) error
}

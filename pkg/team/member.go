package team

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/bookingkit/pkg/rbac"
)

// Member is a user acting under an owner account. Removed members are
// deactivated, never deleted, and resolve to zero access everywhere.
type Member struct {
	ID                uuid.UUID `json:"id"`
	OwnerID           uuid.UUID `json:"owner_id"`
	UserID            uuid.UUID `json:"user_id"`
	Email             string    `json:"email"`
	Role              rbac.Role `json:"role"`
	CustomPermissions []string  `json:"custom_permissions,omitempty"` // nil means role defaults
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Permissions returns the member's effective permission set. Inactive
// members hold none.
func (m *Member) Permissions() []string {
	if !m.Active {
		return []string{}
	}
	return rbac.ResolvePermissions(m.Role, m.CustomPermissions)
}

// Clone returns a deep copy of m.
func (m *Member) Clone() *Member {
	c := *m
	c.CustomPermissions = slices.Clone(m.CustomPermissions)
	return &c
}

// Invitation is a pending offer to join an owner's team.
type Invitation struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	Email             string     `json:"email"`
	Role              rbac.Role  `json:"role"`
	CustomPermissions []string   `json:"custom_permissions,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Pending reports whether the invitation can still be accepted at now.
func (i *Invitation) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

// Clone returns a deep copy of i.
func (i *Invitation) Clone() *Invitation {
	c := *i
	c.CustomPermissions = slices.Clone(i.CustomPermissions)
	if i.AcceptedAt != nil {
		t := *i.AcceptedAt
		c.AcceptedAt = &t
	}
	return &c
}

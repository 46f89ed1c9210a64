package rbac

import (
	"slices"

	"github.com/dmitrymomot/bookingkit/pkg/scopes"
)

// ParseRole converts a role name into a Role.
func ParseRole(name string) (Role, error) {
	r := Role(name)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Roles returns all roles ordered from the highest level to the lowest.
func Roles() []Role {
	out := make([]Role, 0, len(roles))
	for r := range roles {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Role) int {
		return b.Level() - a.Level()
	})
	return out
}

// AssignableRoles returns the roles a team member may hold. Owner is implicit
// to the owning account and is never assigned to a delegated member.
func AssignableRoles() []Role {
	return slices.DeleteFunc(Roles(), func(r Role) bool { return r == RoleOwner })
}

// ResolvePermissions returns the effective permission set for a role.
// A non-nil custom set is returned verbatim and replaces the role defaults;
// an empty but non-nil custom set therefore grants nothing.
func ResolvePermissions(role Role, custom []string) []string {
	if custom != nil {
		return slices.Clone(custom)
	}
	return role.DefaultPermissions()
}

// HasPermission reports whether permissions grant action, honoring the global
// wildcard and resource wildcards ("bookings:*" grants "bookings:write").
func HasPermission(permissions []string, action string) bool {
	return scopes.Has(permissions, action)
}

// Can is the error-returning form of HasPermission.
func Can(permissions []string, action string) error {
	if !HasPermission(permissions, action) {
		return ErrInsufficientPermissions
	}
	return nil
}

// CanManage reports whether an actor with actorRole may manage a member holding
// targetRole. The comparison is strict: peers never manage each other and no
// one manages the owner.
func CanManage(actorRole, targetRole Role) bool {
	if !actorRole.Valid() || !targetRole.Valid() {
		return false
	}
	return actorRole.Level() > targetRole.Level()
}

// CanGrant fails with ErrPermissionEscalation unless held covers every
// permission in granted. Wildcards in held cover what they match.
func CanGrant(held, granted []string) error {
	if !scopes.Validate(granted, held) {
		return ErrPermissionEscalation
	}
	return nil
}

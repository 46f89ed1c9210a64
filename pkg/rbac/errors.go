package rbac

import "errors"

var (
	// ErrInvalidRole is returned when a role is not part of the role catalog.
	ErrInvalidRole = errors.New("rbac.invalid_role")

	// ErrInsufficientPermissions is returned when required permissions are not granted.
	ErrInsufficientPermissions = errors.New("rbac.insufficient_permissions")

	// ErrCannotManageRole is returned when the actor's level does not exceed the target's.
	ErrCannotManageRole = errors.New("rbac.cannot_manage_role")

	// ErrPermissionEscalation is returned when an actor grants permissions it does not hold.
	ErrPermissionEscalation = errors.New("rbac.permission_escalation")
)

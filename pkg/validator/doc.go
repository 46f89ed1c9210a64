// Package validator provides declarative input validation.
//
// Each exported helper returns a Rule: a Check function plus the
// ValidationError reported when it fails. Apply evaluates rules and collects
// failures into ValidationErrors, which implements error, matches
// ErrValidationFailed via errors.Is, and carries translation keys for the
// presentation layer.
//
//	err := validator.Apply(
//	    validator.ValidEmail("email", email),
//	    validator.InList("role", role, rbac.AssignableRoles()),
//	    validator.Subset("permissions", perms, rbac.AvailablePermissions),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    details := verrs.Map()
//	}
//
// Rules hold no state and are safe for concurrent use.
package validator

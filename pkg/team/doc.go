// Package team manages the members of an owner account.
//
// Users join a team by accepting an Invitation, which fixes their role and an
// optional custom permission set. Members are deactivated on removal rather
// than deleted; an inactive member holds no permissions and resolves to zero
// access everywhere. Removal hooks let other packages clean up member data,
// e.g. per-plugin access overrides.
//
// Roles come from package rbac. UpdateRole requires the actor to strictly
// outrank both the member's current and new role.
//
// The number of active members plus pending invitations can be capped with
// WithMaxMembers. Owners holding a usable subscription to the plugin set with
// WithUnlimitedPlugin are exempt from the cap.
package team

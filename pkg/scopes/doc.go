// Package scopes matches permission strings of the form "resource:action".
//
// A permission list grants a requested permission when it contains the exact
// string, the global wildcard "*", or a resource wildcard such as "bookings:*"
// which grants every action on that resource.
//
//	held := []string{"bookings:*", "calendar:read"}
//
//	scopes.Has(held, "bookings:write") // true
//	scopes.Has(held, "calendar:write") // false
//
// Validate checks that every entry of a list is granted by an allow-list,
// which may itself hold wildcards.
package scopes

package scopes

import "strings"

const (
	// Wildcard grants every permission when held on its own.
	Wildcard = "*"

	// Delimiter separates the resource from the action ("bookings:write").
	Delimiter = ":"
)

// Matches reports whether a held permission grants the requested one.
//
// Matching rules:
//   - exact match: "bookings:read" grants "bookings:read"
//   - global wildcard: "*" grants anything
//   - resource wildcard: "bookings:*" grants "bookings:read", "bookings:write", ...
//
// An empty request is never granted.
func Matches(requested, held string) bool {
	if requested == "" || held == "" {
		return false
	}
	if requested == held || held == Wildcard {
		return true
	}

	resource, ok := strings.CutSuffix(held, Delimiter+Wildcard)
	if !ok || resource == "" {
		return false
	}
	return strings.HasPrefix(requested, resource+Delimiter)
}

// Has reports whether any held permission grants the requested one.
//
// Example:
//
//	scopes.Has([]string{"bookings:*"}, "bookings:write") // true
func Has(held []string, requested string) bool {
	for _, h := range held {
		if Matches(requested, h) {
			return true
		}
	}
	return false
}

// Validate reports whether every permission in list is allowed by the allow-list.
// Entries of the allow-list may themselves be wildcards.
func Validate(list, allowed []string) bool {
	if len(list) == 0 {
		return true
	}
	if len(allowed) == 0 {
		return false
	}
	for _, p := range list {
		if !Has(allowed, p) {
			return false
		}
	}
	return true
}

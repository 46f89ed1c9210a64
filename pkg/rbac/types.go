package rbac

import "slices"

// Role is a member role name. The set of roles is closed: only the constants
// below are valid, and each carries a fixed level and default permission set.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
	RoleViewer   Role = "viewer"
)

// Permissions available for non-plugin features. Custom permission sets may
// only contain entries from this list.
const (
	PermBookingsRead   = "bookings:read"
	PermBookingsWrite  = "bookings:write"
	PermCalendarRead   = "calendar:read"
	PermCalendarWrite  = "calendar:write"
	PermClientsRead    = "clients:read"
	PermClientsWrite   = "clients:write"
	PermServicesRead   = "services:read"
	PermServicesWrite  = "services:write"
	PermReportsRead    = "reports:read"
	PermTeamRead       = "team:read"
	PermTeamManage     = "team:manage"
	PermSettingsRead   = "settings:read"
	PermSettingsManage = "settings:manage"
	PermBillingRead    = "billing:read"
	PermBillingManage  = "billing:manage"
	PermPluginsRead    = "plugins:read"
)

// AvailablePermissions lists every permission a custom permission set may contain.
var AvailablePermissions = []string{
	PermBookingsRead, PermBookingsWrite,
	PermCalendarRead, PermCalendarWrite,
	PermClientsRead, PermClientsWrite,
	PermServicesRead, PermServicesWrite,
	PermReportsRead,
	PermTeamRead, PermTeamManage,
	PermSettingsRead, PermSettingsManage,
	PermBillingRead, PermBillingManage,
	PermPluginsRead,
}

type definition struct {
	level       int
	permissions []string
}

// roles is catalog data; it is never modified at runtime.
var roles = map[Role]definition{
	RoleOwner: {
		level:       100,
		permissions: []string{"*"},
	},
	RoleAdmin: {
		level: 80,
		permissions: []string{
			"bookings:*", "calendar:*", "clients:*", "services:*",
			"team:*", "settings:*", PermReportsRead, PermBillingRead, PermPluginsRead,
		},
	},
	RoleManager: {
		level: 60,
		permissions: []string{
			"bookings:*", "calendar:*", "clients:*",
			PermServicesRead, PermTeamRead, PermReportsRead, PermPluginsRead,
		},
	},
	RoleEmployee: {
		level: 40,
		permissions: []string{
			PermBookingsRead, PermBookingsWrite, PermCalendarRead, PermClientsRead,
		},
	},
	RoleViewer: {
		level:       20,
		permissions: []string{PermBookingsRead, PermCalendarRead},
	},
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a role from the catalog.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// Level returns the role's position in the hierarchy; unknown roles are 0.
func (r Role) Level() int {
	return roles[r].level
}

// DefaultPermissions returns a copy of the role's default permission set.
func (r Role) DefaultPermissions() []string {
	return slices.Clone(roles[r].permissions)
}

// Package rbac implements the team role model.
//
// Roles form a closed enumeration with a strict total order:
//
//	owner (100) > admin (80) > manager (60) > employee (40) > viewer (20)
//
// Every role has a fixed default permission set; owner holds the global
// wildcard. A team member may carry a custom permission set which replaces
// the defaults entirely. Custom sets are limited to AvailablePermissions.
//
//	perms := rbac.ResolvePermissions(member.Role, member.CustomPermissions)
//	if rbac.HasPermission(perms, rbac.PermTeamManage) {
//	    // ...
//	}
//
// CanManage compares levels with a single integer comparison. Peers cannot
// manage each other and nobody can manage the owner:
//
//	rbac.CanManage(rbac.RoleAdmin, rbac.RoleManager) // true
//	rbac.CanManage(rbac.RoleAdmin, rbac.RoleAdmin)   // false
//
// Plugin access is not derived from these permissions; see package access.
package rbac

// Copyright (c) 2026 Stocktrail. All rights reserved.
// Author: dev@stocktrail.io

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Unrestricted system access
	RoleAdmin UserRole = "admin"

	// Can manage catalogue inventory and fulfil orders
	RoleManager UserRole = "manager"

	// Default role for standard registered customers
	RoleBuyer UserRole = "buyer"
)

// IsValid reports whether the role belongs to the closed set of known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleBuyer:
		return true
	}
	return false
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {

	// Linear scale (10-30) allows for future intermediate roles
	switch r {
	case RoleAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleBuyer:
		return 10
	default:
		return 0
	}
}

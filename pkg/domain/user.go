package domain

import "time"

// Role determines which storefront actions a user may perform.
// Roles are mutually exclusive and fixed for the lifetime of a session.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleAdmin    Role = "ADMIN"
)

// ValidRole returns true if r is a known storefront role.
func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// RegisterRoles are the roles a user may pick at sign-up.
// ADMIN accounts are provisioned out of band.
var RegisterRoles = []Role{RoleCustomer, RoleSeller}

// User represents a registered storefront account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

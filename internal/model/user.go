package model

import "time"

// UserRole represents the role of a staff account
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"   // Full access including user management
	UserRoleManager UserRole = "manager" // Customers, cars, catalog and invoices
	UserRoleMaster  UserRole = "master"  // Workshop mechanic, sees own invoices
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleMaster:
		return true
	}
	return false
}

// User represents a staff account
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Hash      string    `json:"-"` // Never expose password hash
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserUpdate holds a partial update; nil fields are left unchanged
type UserUpdate struct {
	Username *string   `json:"username,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// CallerIdentity is the authenticated subject of a single request.
// It is resolved from the bearer credential on every request and never cached.
type CallerIdentity struct {
	SubjectID int64    `json:"id"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
}

// HasRole reports whether the caller holds any of the given roles
func (c *CallerIdentity) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

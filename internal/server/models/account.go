// Package models holds the server's persistent domain types.
package models

import "time"

// Role is an account's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// CanOwnBusinesses reports whether accounts with role r may create listings.
func (r Role) CanOwnBusinesses() bool {
	return r == RoleOwner || r == RoleAdmin
}

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Account is a registered user. PasswordHash is only ever written by the
// password hasher and never leaves the server; use the HTTP layer's public
// view for output.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	PlanKey      string
	IsVerified   bool
	IsActive     bool
	// TokenEpoch is embedded in issued tokens; bumping it revokes them.
	TokenEpoch  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

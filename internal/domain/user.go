package domain

import "time"

// Role separates IT staff from regular employees.
type Role string

const (
	RoleIT       Role = "it"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleIT || r == RoleEmployee
}

// User is anyone who can sign in: employees filing tickets and IT staff handling them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsIT reports whether the user holds the IT role.
func (u *User) IsIT() bool {
	return u != nil && u.Role == RoleIT
}

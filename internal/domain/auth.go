package domain

import "time"

// SessionToken is a signed bearer credential issued at login.
type SessionToken struct {
	Value     string
	Subject   string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

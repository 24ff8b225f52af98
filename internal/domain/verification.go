package domain

import "time"

// VerificationCode is a short-lived numeric code gating a password change.
// At most one live code exists per email.
type VerificationCode struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (v VerificationCode) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

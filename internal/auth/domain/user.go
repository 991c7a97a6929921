package domain

import "time"

// User is a registered identity. EmailVerified flips from false to true
// exactly once, through OTP verification.
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string // argon2 encoded
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

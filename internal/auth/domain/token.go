package domain

import "time"

// RefreshSession models the stored refresh session record in the DB. The ID
// is the opaque refresh token handed to the client.
type RefreshSession struct {
	ID        string // UUIDv4, canonical form
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s RefreshSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthTokens is what a successful authentication or refresh yields.
type AuthTokens struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time

	// RefreshTokenTTL is the time left on the refresh session when the
	// tokens were produced. It is not reset by a refresh.
	RefreshTokenTTL time.Duration
}

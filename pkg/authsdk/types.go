package authsdk

import (
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// TokenTypeBearer is the token_type of every mobile token response.
const TokenTypeBearer = "Bearer"

// RefreshTokenCookie is the cookie carrying the refresh token for web clients.
const RefreshTokenCookie = "refresh_token"

// ============================================================================
// Registration Types
// ============================================================================

// SignUpRequest is the body of POST /api/auth/sign-up.
type SignUpRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// SignUpResponse describes the newly created, not yet verified account.
type SignUpResponse struct {
	ID       string `json:"id" example:"01HZX3J6W5T8K2Q9R4M7N1P0AB"`
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
}

// ============================================================================
// Authentication Types
// ============================================================================

// SignInRequest is the body of the web and mobile sign-in endpoints.
type SignInRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// WebTokenResponse is returned to browser clients. The refresh token
// travels in the refresh_token cookie instead of the body.
type WebTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RefreshTokenRequest is the body of the mobile refresh and sign-out endpoints.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"3f1c1a9e-8b0a-4a7c-9d38-0f6b1f2b8c11"`
}

// MobileTokenResponse carries both tokens and their absolute expiry in
// milliseconds since the Unix epoch.
type MobileTokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at" example:"1767225600000"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at" example:"1767830400000"`
	TokenType             string `json:"token_type" example:"Bearer"`
}

// AccessTokenExpiry returns AccessTokenExpiresAt as a time.
func (r MobileTokenResponse) AccessTokenExpiry() time.Time {
	return time.UnixMilli(r.AccessTokenExpiresAt)
}

// RefreshTokenExpiry returns RefreshTokenExpiresAt as a time.
func (r MobileTokenResponse) RefreshTokenExpiry() time.Time {
	return time.UnixMilli(r.RefreshTokenExpiresAt)
}

// ============================================================================
// Email Verification Types
// ============================================================================

// VerifyEmailRequest is the body of POST /api/auth/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email" example:"alice@example.com"`
	OTP   string `json:"otp" example:"042137"`
}

// ============================================================================
// User Types
// ============================================================================

// UserProfileResponse is returned by GET /api/user/me.
type UserProfileResponse struct {
	ID            string `json:"id" example:"01HZX3J6W5T8K2Q9R4M7N1P0AB"`
	Username      string `json:"username" example:"alice"`
	Email         string `json:"email" example:"alice@example.com"`
	EmailVerified bool   `json:"email_verified" example:"true"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Cache indicates the OTP cache connection status
	Cache string `json:"cache"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS

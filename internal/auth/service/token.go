package service

import (
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// TokenAuthority mints and checks signed access tokens. Tokens are not
// stored anywhere, so one stays valid until its exp passes.
type TokenAuthority struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (a *TokenAuthority) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *TokenAuthority) ttl() time.Duration {
	if a.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return a.AccessTTL
}

// GenerateToken signs an access token for subject (a username) and returns
// it with its expiry.
func (a *TokenAuthority) GenerateToken(subject string) (string, time.Time, error) {
	if a.KeyManager == nil || !a.KeyManager.IsReady() {
		return "", time.Time{}, errors.New("token authority has no signing key")
	}

	claims := jwtx.NewAccessClaims(subject, a.Issuer, a.Audience, a.ttl(), a.now())
	token, err := a.KeyManager.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify checks signature, issuer, audience and validity window.
func (a *TokenAuthority) Verify(token string) (jwtx.Claims, error) {
	return a.KeyManager.Verifier.Verify(token)
}

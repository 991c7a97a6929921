package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
)

// refreshCookiePath scopes the refresh cookie to the endpoints that read it.
const refreshCookiePath = "/api/auth"

// CookieConfig controls the refresh_token cookie handed to web clients.
type CookieConfig struct {
	// Secure should only be false for plain-HTTP local development.
	Secure bool
}

// setRefreshCookie stores the refresh token for ttl, the time left on the
// session. The cookie never outlives the session it points to.
func (c CookieConfig) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshTokenCookie,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c CookieConfig) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.RefreshTokenCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshCookie(r *http.Request) (string, bool) {
	ck, err := r.Cookie(authsdk.RefreshTokenCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func writeMissingRefreshCookie(w http.ResponseWriter, r *http.Request) {
	writeValidationError(w, r, map[string][]string{
		authsdk.RefreshTokenCookie: {"refresh token cookie is missing"},
	})
}

package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// ErrMissingBearer is passed to the failure handler when no bearer token was sent.
var ErrMissingBearer = errors.New("httpx: missing bearer token")

// AuthFailureFunc renders a rejected request. The error is ErrMissingBearer
// or the verifier's error.
type AuthFailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware requires a valid bearer access token and injects its
// claims into the request context. A nil onFail writes a bare RFC 6750
// challenge.
func AuthnMiddleware(v jwtx.Verifier, onFail AuthFailureFunc) Middleware {
	if onFail == nil {
		onFail = func(w http.ResponseWriter, _ *http.Request, err error) {
			WriteBearerChallenge(w, err)
			w.WriteHeader(http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				onFail(w, r, ErrMissingBearer)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("jwt verify failed", "err", err)
				onFail(w, r, err)
				return
			}

			ctx = slogx.With(ctx, "sub", claims.Subject)
			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WriteBearerChallenge sets an RFC 6750 WWW-Authenticate header.
func WriteBearerChallenge(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrMissingBearer) {
		w.Header().Set("WWW-Authenticate", `Bearer`)
		return
	}
	desc := "token verification failed"
	if errors.Is(err, jwtx.ErrExpired) {
		desc = "token expired"
	}
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}

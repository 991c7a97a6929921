package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// WebAuthHandler serves browser clients: the access token goes in the body
// and the refresh token in an HttpOnly cookie.
type WebAuthHandler struct {
	AuthService *service.AuthService
	Cookies     CookieConfig
}

// HandleSignIn handles POST /api/auth/sign-in
//
//	@Summary		Sign in (web)
//	@Description	Authenticates with username and password. The refresh token is set as an HttpOnly cookie scoped to /api/auth.
//	@Description	Accounts whose email is not verified get EMAIL_VERIFICATION_REQUIRED with the address to verify.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest		true	"Credentials"
//	@Success		200		{object}	authsdk.WebTokenResponse	"Access token; refresh_token cookie set"
//	@Failure		400		{object}	authsdk.APIError			"VALIDATION_FAILED"
//	@Failure		401		{object}	authsdk.APIError			"UNAUTHORIZED or EMAIL_VERIFICATION_REQUIRED"
//	@Failure		500		{object}	authsdk.APIError			"UNKNOWN_SERVER_ERROR"
//	@Router			/api/auth/sign-in [post].
func (h *WebAuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformedBody(w, r)
		return
	}
	if fields := required("username", req.Username, "password", req.Password); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	tokens, err := h.AuthService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, tokens)
}

// HandleRefresh handles POST /api/auth/refresh
//
//	@Summary		Refresh access token (web)
//	@Description	Issues a new access token for the session in the refresh_token cookie. The cookie is re-set with the same value and the session's remaining lifetime.
//	@Tags			Authentication
//	@Produce		json
//	@Success		200	{object}	authsdk.WebTokenResponse	"Access token; refresh_token cookie re-set"
//	@Failure		400	{object}	authsdk.APIError			"refresh_token cookie missing"
//	@Failure		401	{object}	authsdk.APIError			"Unknown, expired or revoked session"
//	@Router			/api/auth/refresh [post].
func (h *WebAuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshCookie(r)
	if !ok {
		writeMissingRefreshCookie(w, r)
		return
	}

	tokens, err := h.AuthService.RefreshToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, tokens)
}

// HandleSignOut handles POST /api/auth/sign-out
//
//	@Summary		Sign out (web)
//	@Description	Revokes the session in the refresh_token cookie and clears the cookie. Access tokens already issued stay valid until they expire.
//	@Tags			Authentication
//	@Success		204	"Signed out"
//	@Failure		400	{object}	authsdk.APIError	"refresh_token cookie missing"
//	@Failure		401	{object}	authsdk.APIError	"Malformed refresh token"
//	@Router			/api/auth/sign-out [post].
func (h *WebAuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := refreshCookie(r)
	if !ok {
		writeMissingRefreshCookie(w, r)
		return
	}

	if err := h.AuthService.RevokeRefreshToken(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *WebAuthHandler) writeTokens(w http.ResponseWriter, tokens *domain.AuthTokens) {
	h.Cookies.setRefreshCookie(w, tokens.RefreshToken, tokens.RefreshTokenTTL)
	httpx.WriteJSON(w, http.StatusOK, authsdk.WebTokenResponse{AccessToken: tokens.AccessToken})
}

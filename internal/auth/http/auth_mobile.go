package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// MobileAuthHandler serves native clients, which keep both tokens themselves.
type MobileAuthHandler struct {
	AuthService *service.AuthService
}

// HandleSignIn handles POST /api/auth/mobile/sign-in
//
//	@Summary		Sign in (mobile)
//	@Description	Authenticates with username and password and returns both tokens with absolute expiries in epoch milliseconds.
//	@Tags			Mobile Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest		true	"Credentials"
//	@Success		200		{object}	authsdk.MobileTokenResponse	"Tokens"
//	@Failure		400		{object}	authsdk.APIError			"VALIDATION_FAILED"
//	@Failure		401		{object}	authsdk.APIError			"UNAUTHORIZED or EMAIL_VERIFICATION_REQUIRED"
//	@Router			/api/auth/mobile/sign-in [post].
func (h *MobileAuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
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

	httpx.WriteJSON(w, http.StatusOK, mobileTokens(tokens))
}

// HandleRefresh handles POST /api/auth/mobile/refresh
//
//	@Summary		Refresh access token (mobile)
//	@Description	Issues a new access token. The refresh token is returned unchanged with its original expiry.
//	@Tags			Mobile Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.MobileTokenResponse	"Tokens"
//	@Failure		400		{object}	authsdk.APIError			"refresh_token missing"
//	@Failure		401		{object}	authsdk.APIError			"Unknown, expired or revoked session"
//	@Router			/api/auth/mobile/refresh [post].
func (h *MobileAuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	tokens, err := h.AuthService.RefreshToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mobileTokens(tokens))
}

// HandleSignOut handles POST /api/auth/mobile/sign-out
//
//	@Summary		Sign out (mobile)
//	@Description	Revokes the refresh token. Revoking an unknown session succeeds.
//	@Tags			Mobile Authentication
//	@Accept			json
//	@Param			request	body	authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		204		"Signed out"
//	@Failure		400		{object}	authsdk.APIError	"refresh_token missing"
//	@Failure		401		{object}	authsdk.APIError	"Malformed refresh token"
//	@Router			/api/auth/mobile/sign-out [post].
func (h *MobileAuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := decodeRefreshToken(w, r)
	if !ok {
		return
	}

	if err := h.AuthService.RevokeRefreshToken(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req authsdk.RefreshTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformedBody(w, r)
		return "", false
	}
	if fields := required("refresh_token", req.RefreshToken); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return "", false
	}
	return req.RefreshToken, true
}

func mobileTokens(t *domain.AuthTokens) authsdk.MobileTokenResponse {
	return authsdk.MobileTokenResponse{
		AccessToken:           t.AccessToken,
		RefreshToken:          t.RefreshToken,
		AccessTokenExpiresAt:  t.AccessTokenExpiresAt.UnixMilli(),
		RefreshTokenExpiresAt: t.RefreshTokenExpiresAt.UnixMilli(),
		TokenType:             authsdk.TokenTypeBearer,
	}
}

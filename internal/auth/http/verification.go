package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// VerificationHandler serves the email verification endpoints. A verified
// account is signed in straight away as a web client.
type VerificationHandler struct {
	VerificationService *service.EmailVerificationService
	AuthService         *service.AuthService
	Cookies             CookieConfig
}

// HandleRequestEmail handles POST /api/auth/request-verification-email
//
//	@Summary		Resend verification code
//	@Description	Sends a fresh code to an unverified account. The response is 204 whether or not the address belongs to an unverified account.
//	@Tags			Email Verification
//	@Param			email	query	string	true	"Account email"
//	@Success		204		"Request accepted"
//	@Failure		400		{object}	authsdk.APIError	"email parameter missing"
//	@Router			/api/auth/request-verification-email [post].
func (h *VerificationHandler) HandleRequestEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if fields := required("email", email); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	// The response must not depend on whether the address is known.
	if err := h.VerificationService.ResendVerification(r.Context(), email); err != nil {
		slogx.FromContext(r.Context()).Error("resend verification failed",
			slogx.Email(email),
			slog.Any("error", err),
		)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify handles POST /api/auth/verify-email
//
//	@Summary		Verify email address
//	@Description	Consumes the emailed code, marks the account verified and signs it in. The refresh token is set as an HttpOnly cookie.
//	@Tags			Email Verification
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyEmailRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.WebTokenResponse	"Access token; refresh_token cookie set"
//	@Failure		400		{object}	authsdk.APIError			"EMAIL_VERIFICATION_FAILED, EMAIL_ALREADY_VERIFIED or VALIDATION_FAILED"
//	@Router			/api/auth/verify-email [post].
func (h *VerificationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyEmailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformedBody(w, r)
		return
	}
	req.OTP = strings.TrimSpace(req.OTP)
	if fields := required("email", req.Email, "otp", req.OTP); len(fields) > 0 {
		writeValidationError(w, r, fields)
		return
	}

	ctx := r.Context()
	user, err := h.VerificationService.VerifyEmail(ctx, req.Email, req.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tokens, err := h.AuthService.AuthenticateUser(ctx, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.setRefreshCookie(w, tokens.RefreshToken, tokens.RefreshTokenTTL)
	httpx.WriteJSON(w, http.StatusOK, authsdk.WebTokenResponse{AccessToken: tokens.AccessToken})
}

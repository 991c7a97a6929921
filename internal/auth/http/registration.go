package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

type RegistrationHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP handles POST /api/auth/sign-up
//
//	@Summary		Register an account
//	@Description	Creates an unverified account and emails a verification code. Password sign-in is refused until the code is submitted to /api/auth/verify-email.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest	true	"New account"
//	@Success		200		{object}	authsdk.SignUpResponse	"Created account"
//	@Failure		400		{object}	authsdk.APIError		"VALIDATION_FAILED with validation_errors"
//	@Failure		409		{object}	authsdk.APIError		"RESOURCE_ALREADY_EXISTS with the taken fields"
//	@Router			/api/auth/sign-up [post].
func (h *RegistrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignUpRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeMalformedBody(w, r)
		return
	}

	user, err := h.RegistrationService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SignUpResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

package http

import (
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

type ProfileHandler struct {
	UserService *service.UserService
}

// ServeHTTP handles GET /api/user/me
//
//	@Summary		Current user profile
//	@Description	Returns the account named by the access token's subject.
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserProfileResponse	"Profile"
//	@Failure		401	{object}	authsdk.APIError			"Missing, invalid or expired access token"
//	@Failure		410	{object}	authsdk.APIError			"ACCOUNT_UNAVAILABLE: the account no longer exists"
//	@Router			/api/user/me [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username, ok := httpx.SubjectFromContext(ctx)
	if !ok || username == "" {
		writeAuthFailure(w, r, httpx.ErrMissingBearer)
		return
	}

	user, err := h.UserService.Profile(ctx, username)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserProfileResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	})
}

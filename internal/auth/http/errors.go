package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// writeError translates a service error into the JSON error body. Errors
// the service layer does not name are logged in full and reported as a
// generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verificationRequired *service.EmailVerificationRequiredError
		conflict             *service.ResourceConflictError
		invalid              *service.ValidationError
	)

	switch {
	case errors.As(err, &verificationRequired):
		resp := *authsdk.ErrEmailVerificationRequired
		resp.Email = verificationRequired.Email
		resp.WriteError(w, r)

	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrUnauthorized.WriteError(w, r)

	case errors.Is(err, service.ErrEmailVerificationFailed):
		authsdk.ErrEmailVerificationFailed.WriteError(w, r)

	case errors.Is(err, service.ErrEmailAlreadyVerified):
		authsdk.ErrEmailAlreadyVerified.WriteError(w, r)

	case errors.Is(err, service.ErrAccountUnavailable):
		authsdk.ErrAccountUnavailable.WriteError(w, r)

	case errors.As(err, &conflict):
		resp := *authsdk.ErrResourceAlreadyExists
		if len(conflict.Fields) > 0 {
			resp.ValidationErrors = conflict.Fields
		}
		resp.WriteError(w, r)

	case errors.As(err, &invalid):
		writeValidationError(w, r, invalid.Fields)

	case errors.Is(err, service.ErrResourceAlreadyExists):
		authsdk.ErrResourceAlreadyExists.WriteError(w, r)

	case errors.Is(err, service.ErrValidationFailed):
		authsdk.ErrValidationFailed.WriteError(w, r)

	default:
		slogx.FromContext(r.Context()).Error("unhandled error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		authsdk.ErrUnknownServerError.WriteError(w, r)
	}
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	resp := *authsdk.ErrValidationFailed
	if len(fields) > 0 {
		resp.ValidationErrors = fields
	}
	resp.WriteError(w, r)
}

// writeMalformedBody reports a body that could not be decoded as JSON.
func writeMalformedBody(w http.ResponseWriter, r *http.Request) {
	resp := *authsdk.ErrValidationFailed
	resp.Message = "Malformed JSON request body"
	resp.WriteError(w, r)
}

// required reports every empty value under its field name.
func required(pairs ...string) map[string][]string {
	fields := map[string][]string{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fields[pairs[i]] = append(fields[pairs[i]], "must not be empty")
		}
	}
	return fields
}

// writeAuthFailure renders a rejected bearer token for httpx.AuthnMiddleware.
func writeAuthFailure(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteBearerChallenge(w, err)
	resp := *authsdk.ErrUnauthorized
	resp.Message = "Access token is missing, invalid or expired"
	resp.WriteError(w, r)
}

package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeUnauthorized              = "UNAUTHORIZED"
	ErrorCodeEmailVerificationRequired = "EMAIL_VERIFICATION_REQUIRED"
	ErrorCodeEmailVerificationFailed   = "EMAIL_VERIFICATION_FAILED"
	ErrorCodeEmailAlreadyVerified      = "EMAIL_ALREADY_VERIFIED"
	ErrorCodeResourceAlreadyExists     = "RESOURCE_ALREADY_EXISTS"
	ErrorCodeAccountUnavailable        = "ACCOUNT_UNAVAILABLE"
	ErrorCodeValidationFailed          = "VALIDATION_FAILED"
	ErrorCodeNotFound                  = "NOT_FOUND"
	ErrorCodeUnknownServerError        = "UNKNOWN_SERVER_ERROR"
)

// TimestampLayout formats APIError.Timestamp.
const TimestampLayout = time.RFC3339

// ============================================================================
// APIError
// ============================================================================

// APIError is the JSON error body of every endpoint. The server writes it
// with WriteError and the client returns it from failed calls.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	Code      string `json:"code" example:"UNAUTHORIZED"`
	Message   string `json:"message" example:"Invalid username or password"`
	Path      string `json:"path" example:"/api/auth/sign-in"`
	Timestamp string `json:"timestamp" example:"2026-01-01T12:00:00Z"`

	// ValidationErrors maps a request field to its problems. Set for
	// VALIDATION_FAILED and RESOURCE_ALREADY_EXISTS.
	ValidationErrors map[string][]string `json:"validation_errors,omitempty"`

	// Email is set for EMAIL_VERIFICATION_REQUIRED so the client can offer
	// to resend the code.
	Email string `json:"email,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *APIError with the same Code, so callers can write
// errors.Is(err, authsdk.ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes the error as JSON with its status code. Path and
// Timestamp are filled from r when empty.
func (e *APIError) WriteError(w http.ResponseWriter, r *http.Request) {
	body := *e
	if body.Path == "" && r != nil {
		body.Path = r.URL.Path
	}
	if body.Timestamp == "" {
		body.Timestamp = time.Now().UTC().Format(TimestampLayout)
	}

	httpx.WriteJSON(w, e.StatusCode, body)
}

// NewAPIError creates an APIError with the given status code, code and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthorized,
		Message:    "Invalid credentials",
	}

	ErrEmailVerificationRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeEmailVerificationRequired,
		Message:    "Email address has not been verified",
	}

	ErrEmailVerificationFailed = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeEmailVerificationFailed,
		Message:    "Invalid email or verification code",
	}

	ErrEmailAlreadyVerified = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeEmailAlreadyVerified,
		Message:    "Email address is already verified",
	}

	ErrResourceAlreadyExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeResourceAlreadyExists,
		Message:    "Request validation failed",
	}

	ErrAccountUnavailable = &APIError{
		StatusCode: http.StatusGone,
		Code:       ErrorCodeAccountUnavailable,
		Message:    "Account is no longer available",
	}

	ErrValidationFailed = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidationFailed,
		Message:    "Request validation failed",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "Resource not found",
	}

	ErrUnknownServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeUnknownServerError,
		Message:    "An unexpected error occurred",
	}
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. Bodies that
// are not APIError JSON yield a generic error carrying the status code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeUnknownServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}

package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials        = errors.New("invalid_credentials")
	ErrEmailVerificationRequired = errors.New("email_verification_required")
	ErrEmailVerificationFailed   = errors.New("email_verification_failed")
	ErrEmailAlreadyVerified      = errors.New("email_already_verified")
	ErrResourceAlreadyExists     = errors.New("resource_already_exists")
	ErrAccountUnavailable        = errors.New("account_unavailable")
	ErrValidationFailed          = errors.New("validation_failed")
)

// EmailVerificationRequiredError is returned by Authenticate when the
// password matched but the account's email has not been confirmed yet.
type EmailVerificationRequiredError struct {
	Email string
}

func (e *EmailVerificationRequiredError) Error() string {
	return ErrEmailVerificationRequired.Error()
}

func (e *EmailVerificationRequiredError) Is(target error) bool {
	return target == ErrEmailVerificationRequired
}

// FieldErrors maps a request field to the messages describing what is wrong with it.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f FieldErrors) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(f[k], ", "))
	}
	return b.String()
}

// ResourceConflictError lists the unique fields that are already taken.
type ResourceConflictError struct {
	Fields FieldErrors
}

func (e *ResourceConflictError) Error() string {
	if len(e.Fields) == 0 {
		return ErrResourceAlreadyExists.Error()
	}
	return ErrResourceAlreadyExists.Error() + ": " + e.Fields.String()
}

func (e *ResourceConflictError) Is(target error) bool {
	return target == ErrResourceAlreadyExists
}

// ValidationError lists malformed request fields.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + e.Fields.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

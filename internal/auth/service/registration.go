package service

import (
	"context"
	"errors"
	"log/slog"
	netmail "net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// RegistrationService creates unverified accounts and starts email verification.
type RegistrationService struct {
	Store        store.Store
	Credentials  CredentialVerifier
	Verification *EmailVerificationService
}

// Register validates and stores a new account, then sends the first
// verification code. Emails are stored lower-cased.
//
// A failed verification send is logged but does not undo the account: the
// user can ask for another code.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if fields := validateRegistration(username, email, password); len(fields) > 0 {
		return domain.User{}, &ValidationError{Fields: fields}
	}

	conflicts := FieldErrors{}
	emailTaken, err := s.Store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if emailTaken {
		conflicts.add("email", "Email is already taken")
	}
	usernameTaken, err := s.Store.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	if usernameTaken {
		conflicts.add("username", "Username is already taken")
	}
	if len(conflicts) > 0 {
		l.Info("registration conflict", slog.String("username", username), slogx.Email(email))
		return domain.User{}, &ResourceConflictError{Fields: conflicts}
	}

	hash, err := credentialsOrDefault(s.Credentials).Hash(password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race against a concurrent registration.
			return domain.User{}, &ResourceConflictError{}
		}
		l.Error("failed to create user", slog.String("username", username), slog.Any("error", err))
		return domain.User{}, err
	}

	created, err := s.Store.Users().GetUserByID(ctx, user.ID)
	if err == nil {
		user = created
	}

	l.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))

	if s.Verification != nil {
		if err := s.Verification.SendVerification(ctx, user); err != nil {
			l.Error("failed to send verification email",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	return user, nil
}

func validateRegistration(username, email, password string) FieldErrors {
	fields := FieldErrors{}

	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		fields.add("username", "Username is required")
	case n < MinUsernameLength || n > MaxUsernameLength:
		fields.add("username", "Username must be between 3 and 32 characters")
	case !usernamePattern.MatchString(username):
		fields.add("username", "Username may only contain letters, digits, '.', '_' and '-'")
	}

	switch {
	case email == "":
		fields.add("email", "Email is required")
	case len(email) > MaxEmailLength || !validEmail(email):
		fields.add("email", "Email must be a valid address")
	}

	switch n := utf8.RuneCountInString(password); {
	case n == 0:
		fields.add("password", "Password is required")
	case n < MinPasswordLength || n > MaxPasswordLength:
		fields.add("password", "Password must be between 8 and 128 characters")
	}

	return fields
}

// validEmail accepts a bare addr-spec only, no display name.
func validEmail(email string) bool {
	addr, err := netmail.ParseAddress(email)
	return err == nil && addr.Address == email && addr.Name == ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/mail"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	verificationSubject = "Email Verification"
	verificationBody    = "Enter the following email verification code: %s"
)

// EmailVerificationService owns the OTP gate between registration and
// the first password sign-in.
type EmailVerificationService struct {
	Store store.Store
	OTP   *OTPService
	Mail  mail.Sender
}

// VerifyEmail consumes a code and flips the account to verified. An
// unknown email and a wrong code fail the same way.
func (s *EmailVerificationService) VerifyEmail(ctx context.Context, email, code string) (domain.User, error) {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("verification for unknown email", slogx.Email(email))
			return domain.User{}, ErrEmailVerificationFailed
		}
		return domain.User{}, err
	}

	ok, err := s.OTP.IsValid(ctx, user.ID, code)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		l.Info("verification with wrong or expired code", slog.String("user_id", user.ID))
		return domain.User{}, ErrEmailVerificationFailed
	}

	if err := s.OTP.Delete(ctx, user.ID); err != nil {
		return domain.User{}, err
	}

	if user.EmailVerified {
		return domain.User{}, ErrEmailAlreadyVerified
	}

	if err := s.Store.Users().MarkEmailVerified(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	user.EmailVerified = true

	l.Info("email verified", slog.String("user_id", user.ID))
	return user, nil
}

// ResendVerification sends a fresh code to an unverified account. Unknown
// and already verified addresses are a silent no-op.
func (s *EmailVerificationService) ResendVerification(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("verification email requested for unknown address", slogx.Email(email))
			return nil
		}
		return err
	}

	if user.EmailVerified {
		l.Warn("verification email requested for verified account", slog.String("user_id", user.ID))
		return nil
	}

	return s.SendVerification(ctx, user)
}

// SendVerification issues a code for user and hands the message to the
// mail sender. With an async sender the call returns before delivery.
func (s *EmailVerificationService) SendVerification(ctx context.Context, user domain.User) error {
	code, err := s.OTP.GenerateAndStore(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: verificationSubject,
		Body:    fmt.Sprintf(verificationBody, code),
	}
	if err := s.Mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	slogx.FromContext(ctx).Info("verification email queued",
		slog.String("user_id", user.ID),
		slogx.Email(user.Email),
	)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/google/uuid"
)

// AuthService turns credentials or a refresh session into tokens.
type AuthService struct {
	Store       store.Store
	Tokens      *TokenAuthority
	Credentials CredentialVerifier
	RefreshTTL  time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL <= 0 {
		return jwtx.DefaultRefreshTokenTTL
	}
	return s.RefreshTTL
}

// Authenticate checks a username and password. An unknown username and a
// wrong password are indistinguishable to the caller. The verification
// gate is only consulted once the password has matched.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.AuthTokens, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("sign-in for unknown username", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !credentialsOrDefault(s.Credentials).Matches(password, user.PasswordHash) {
		l.Info("sign-in with wrong password", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		l.Info("sign-in blocked until email is verified", slog.String("user_id", user.ID))
		return nil, &EmailVerificationRequiredError{Email: user.Email}
	}

	return s.AuthenticateUser(ctx, user)
}

// AuthenticateUser issues one access token and opens one refresh session
// for an already trusted user.
func (s *AuthService) AuthenticateUser(ctx context.Context, user domain.User) (*domain.AuthTokens, error) {
	access, accessExp, err := s.Tokens.GenerateToken(user.Username)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user, s.refreshTTL())
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("user authenticated",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return &domain.AuthTokens{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          session.ID,
		RefreshTokenExpiresAt: session.ExpiresAt,
		RefreshTokenTTL:       s.refreshTTL(),
	}, nil
}

func (s *AuthService) createSession(ctx context.Context, user domain.User, ttl time.Duration) (domain.RefreshSession, error) {
	now := s.now()
	session := domain.RefreshSession{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.RefreshSessions().CreateRefreshSession(ctx, session); err != nil {
		return domain.RefreshSession{}, err
	}
	return session, nil
}

// RefreshToken issues a new access token against a live refresh session.
// The session id is returned unchanged together with its remaining TTL.
func (s *AuthService) RefreshToken(ctx context.Context, presented string) (*domain.AuthTokens, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	id, err := uuid.Parse(presented)
	if err != nil {
		l.Info("refresh with malformed token")
		return nil, ErrInvalidCredentials
	}

	session, err := s.Store.RefreshSessions().FindValidRefreshSession(ctx, id.String(), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("refresh with unknown or expired session", slog.String("session_id", id.String()))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("refresh session owner is gone", slog.String("session_id", session.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	access, accessExp, err := s.Tokens.GenerateToken(user.Username)
	if err != nil {
		return nil, err
	}

	return &domain.AuthTokens{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          session.ID,
		RefreshTokenExpiresAt: session.ExpiresAt,
		RefreshTokenTTL:       session.ExpiresAt.Sub(now),
	}, nil
}

// RevokeRefreshToken ends a refresh session. Revoking an unknown or already
// revoked session succeeds; only a malformed token is rejected.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, presented string) error {
	id, err := uuid.Parse(presented)
	if err != nil {
		return ErrInvalidCredentials
	}

	if err := s.Store.RefreshSessions().DeleteRefreshSession(ctx, id.String()); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("refresh session revoked", slog.String("session_id", id.String()))
	return nil
}

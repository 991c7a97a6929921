package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		h := newHarness(t)
		h.registerVerified(t, "alice", "alice@example.com", "password123")

		_, err := h.auth.Authenticate(ctx, "nobody", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = h.auth.Authenticate(ctx, "alice", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account with wrong password does not reveal email", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, "bob", "bob@example.com", "password123")

		_, err := h.auth.Authenticate(ctx, "bob", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.NotErrorIs(t, err, ErrEmailVerificationRequired)
	})

	t.Run("unverified account with right password needs verification", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, "bob", "Bob@Example.com", "password123")

		_, err := h.auth.Authenticate(ctx, "bob", "password123")
		require.ErrorIs(t, err, ErrEmailVerificationRequired)

		var vErr *EmailVerificationRequiredError
		require.True(t, errors.As(err, &vErr))
		require.Equal(t, "bob@example.com", vErr.Email)

		n, err := h.store.RefreshSessions().DeleteExpiredRefreshSessions(ctx, h.clock.Now().Add(365*24*time.Hour))
		require.NoError(t, err)
		require.Zero(t, n, "no session may be opened for an unverified account")
	})

	t.Run("verified account gets tokens", func(t *testing.T) {
		h := newHarness(t)
		h.registerVerified(t, "carol", "carol@example.com", "password123")

		tokens, err := h.auth.Authenticate(ctx, "carol", "password123")
		require.NoError(t, err)

		claims, err := h.tokens.Verify(tokens.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "carol", claims.Subject)
		require.Equal(t, testIssuer, claims.Issuer)
		require.Contains(t, claims.Audience, testAudience)
		require.NotEmpty(t, claims.ID)
		require.WithinDuration(t, claims.ExpiresAt.Time, tokens.AccessTokenExpiresAt, time.Second)

		id, err := uuid.Parse(tokens.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(4), id.Version())
		require.Equal(t, id.String(), tokens.RefreshToken, "canonical form")
		require.Equal(t, testRefreshTTL, tokens.RefreshTokenTTL)
		require.WithinDuration(t, h.clock.Now().Add(testRefreshTTL), tokens.RefreshTokenExpiresAt, time.Millisecond)
	})

	t.Run("each sign-in opens an independent session", func(t *testing.T) {
		h := newHarness(t)
		h.registerVerified(t, "dave", "dave@example.com", "password123")

		first, err := h.auth.Authenticate(ctx, "dave", "password123")
		require.NoError(t, err)
		second, err := h.auth.Authenticate(ctx, "dave", "password123")
		require.NoError(t, err)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)
		require.NotEqual(t, first.AccessToken, second.AccessToken)

		require.NoError(t, h.auth.RevokeRefreshToken(ctx, first.RefreshToken))

		_, err = h.auth.RefreshToken(ctx, second.RefreshToken)
		require.NoError(t, err)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	signIn := func(t *testing.T, h *harness) *domain.AuthTokens {
		t.Helper()
		h.registerVerified(t, "erin", "erin@example.com", "password123")
		tokens, err := h.auth.Authenticate(ctx, "erin", "password123")
		require.NoError(t, err)
		return tokens
	}

	t.Run("returns same session with remaining ttl", func(t *testing.T) {
		h := newHarness(t)
		initial := signIn(t, h)

		h.clock.Advance(time.Hour)

		refreshed, err := h.auth.RefreshToken(ctx, initial.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, initial.RefreshToken, refreshed.RefreshToken)
		require.NotEqual(t, initial.AccessToken, refreshed.AccessToken)
		require.Equal(t, testRefreshTTL-time.Hour, refreshed.RefreshTokenTTL)
		require.True(t, refreshed.RefreshTokenExpiresAt.Equal(initial.RefreshTokenExpiresAt))

		claims, err := h.tokens.Verify(refreshed.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "erin", claims.Subject)
	})

	t.Run("accepts upper case token", func(t *testing.T) {
		h := newHarness(t)
		initial := signIn(t, h)

		refreshed, err := h.auth.RefreshToken(ctx, strings.ToUpper(initial.RefreshToken))
		require.NoError(t, err)
		require.Equal(t, initial.RefreshToken, refreshed.RefreshToken)
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		h := newHarness(t)
		initial := signIn(t, h)

		h.clock.Advance(testRefreshTTL)

		_, err := h.auth.RefreshToken(ctx, initial.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("malformed and unknown tokens are rejected", func(t *testing.T) {
		h := newHarness(t)
		signIn(t, h)

		for _, token := range []string{"", "not-a-uuid", "12345", uuid.NewString()} {
			_, err := h.auth.RefreshToken(ctx, token)
			require.ErrorIs(t, err, ErrInvalidCredentials, "token %q", token)
		}
	})

	t.Run("revoked session is rejected", func(t *testing.T) {
		h := newHarness(t)
		initial := signIn(t, h)

		require.NoError(t, h.auth.RevokeRefreshToken(ctx, initial.RefreshToken))
		require.NoError(t, h.auth.RevokeRefreshToken(ctx, initial.RefreshToken), "revoke is idempotent")

		_, err := h.auth.RefreshToken(ctx, initial.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deleted owner is rejected", func(t *testing.T) {
		h := newHarness(t)
		initial := signIn(t, h)

		u, err := h.store.Users().GetUserByUsername(ctx, "erin")
		require.NoError(t, err)
		require.NoError(t, h.store.Users().DeleteUser(ctx, u.ID))

		_, err = h.auth.RefreshToken(ctx, initial.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("session without owner row is rejected", func(t *testing.T) {
		h := newHarness(t)
		ghost := domain.User{ID: idx.New().String(), Username: "ghost"}
		_, err := h.auth.createSession(ctx, ghost, time.Hour)
		require.Error(t, err, "foreign key keeps orphan sessions out")
	})
}

func TestRevokeRefreshToken_Malformed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	err := h.auth.RevokeRefreshToken(context.Background(), "definitely-not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

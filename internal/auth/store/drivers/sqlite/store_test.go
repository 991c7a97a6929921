package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, username, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$placeholder",
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	alice := seedUser(t, s, "alice", "alice@example.com")

	t.Run("lookups", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", byID.Username)
		require.False(t, byID.EmailVerified)
		require.False(t, byID.CreatedAt.IsZero())

		byName, err := s.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byName.ID)

		byEmail, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, byEmail.ID)
	})

	t.Run("misses map to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Users().GetUserByUsername(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.Users().GetUserByEmail(ctx, "nope@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := s.Users().ExistsByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Users().ExistsByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.True(t, ok, "email comparison ignores case")

		ok, err = s.Users().ExistsByUsername(ctx, "bob")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("duplicates map to ErrAlreadyExists", func(t *testing.T) {
		err := s.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Username: "alice", Email: "other@example.com", PasswordHash: "x",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = s.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Username: "other", Email: "alice@example.com", PasswordHash: "x",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("mark verified", func(t *testing.T) {
		require.NoError(t, s.Users().MarkEmailVerified(ctx, alice.ID))
		u, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.True(t, u.EmailVerified)

		require.ErrorIs(t, s.Users().MarkEmailVerified(ctx, "missing"), store.ErrNotFound)
	})
}

func TestRefreshSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "carol", "carol@example.com")
	now := time.Now().UTC()

	live := domain.RefreshSession{ID: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	dead := domain.RefreshSession{ID: uuid.NewString(), UserID: u.ID, ExpiresAt: now.Add(-time.Second)}
	require.NoError(t, s.RefreshSessions().CreateRefreshSession(ctx, live))
	require.NoError(t, s.RefreshSessions().CreateRefreshSession(ctx, dead))

	t.Run("valid session is returned", func(t *testing.T) {
		got, err := s.RefreshSessions().FindValidRefreshSession(ctx, live.ID, now)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UserID)
		require.WithinDuration(t, live.ExpiresAt, got.ExpiresAt, time.Millisecond)
	})

	t.Run("expired session fails lookup", func(t *testing.T) {
		_, err := s.RefreshSessions().FindValidRefreshSession(ctx, dead.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		_, err := s.RefreshSessions().FindValidRefreshSession(ctx, live.ID, live.ExpiresAt)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		err := s.RefreshSessions().CreateRefreshSession(ctx, live)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("purge removes only expired rows", func(t *testing.T) {
		n, err := s.RefreshSessions().DeleteExpiredRefreshSessions(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = s.RefreshSessions().FindValidRefreshSession(ctx, live.ID, now)
		require.NoError(t, err)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.RefreshSessions().DeleteRefreshSession(ctx, live.ID))
		require.NoError(t, s.RefreshSessions().DeleteRefreshSession(ctx, live.ID))
		_, err := s.RefreshSessions().FindValidRefreshSession(ctx, live.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDeleteUserCascadesSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "dave", "dave@example.com")

	sess := domain.RefreshSession{ID: uuid.NewString(), UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.RefreshSessions().CreateRefreshSession(ctx, sess))
	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	_, err := s.RefreshSessions().FindValidRefreshSession(ctx, sess.ID, time.Now())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	errBoom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Username: "erin", Email: "erin@example.com", PasswordHash: "x",
		}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	ok, err := s.Users().ExistsByUsername(ctx, "erin")
	require.NoError(t, err)
	require.False(t, ok, "rolled back")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Username: "erin", Email: "erin@example.com", PasswordHash: "x",
		})
	}))
	ok, err = s.Users().ExistsByUsername(ctx, "erin")
	require.NoError(t, err)
	require.True(t, ok, "committed")
}

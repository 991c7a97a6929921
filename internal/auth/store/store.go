package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction-scoped Store can hand out the
// same repos without nesting transactions.
type Store interface {
	Users() Users
	RefreshSessions() RefreshSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. It commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// A username or email collision yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkEmailVerified sets email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, userID string) error

	// DeleteUser cascades to refresh_sessions (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type RefreshSessions interface {
	// CreateRefreshSession stores a new refresh session record.
	CreateRefreshSession(ctx context.Context, s domain.RefreshSession) error

	// FindValidRefreshSession returns the session only when it expires
	// strictly after now; otherwise ErrNotFound.
	FindValidRefreshSession(ctx context.Context, id string, now time.Time) (domain.RefreshSession, error)

	// DeleteRefreshSession removes a session. Deleting a missing id is not an error.
	DeleteRefreshSession(ctx context.Context, id string) error

	// DeleteExpiredRefreshSessions is optional housekeeping.
	DeleteExpiredRefreshSessions(ctx context.Context, now time.Time) (int64, error)
}

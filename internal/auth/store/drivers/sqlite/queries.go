package sqlite

import (
	"context"
	"database/sql"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

type userRow struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     int64
	UpdatedAt     int64
}

const userColumns = `id, username, email, password_hash, email_verified, created_at, updated_at`

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const countUsersByEmail = `SELECT COUNT(1) FROM users WHERE email = ?`

func (q *queries) CountUsersByEmail(ctx context.Context, email string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersByEmail, email).Scan(&n)
	return n, err
}

const countUsersByUsername = `SELECT COUNT(1) FROM users WHERE username = ?`

func (q *queries) CountUsersByUsername(ctx context.Context, username string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersByUsername, username).Scan(&n)
	return n, err
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Username, u.Email, u.PasswordHash, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	return err
}

const markEmailVerified = `UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`

func (q *queries) MarkEmailVerified(ctx context.Context, id string, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markEmailVerified, now, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *queries) DeleteUser(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

type refreshSessionRow struct {
	ID        string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

const createRefreshSession = `INSERT INTO refresh_sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`

func (q *queries) CreateRefreshSession(ctx context.Context, s refreshSessionRow) error {
	_, err := q.db.ExecContext(ctx, createRefreshSession, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

const getValidRefreshSession = `SELECT id, user_id, expires_at, created_at
FROM refresh_sessions
WHERE id = ? AND expires_at > ?`

func (q *queries) GetValidRefreshSession(ctx context.Context, id string, now int64) (refreshSessionRow, error) {
	var s refreshSessionRow
	err := q.db.QueryRowContext(ctx, getValidRefreshSession, id, now).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const deleteRefreshSession = `DELETE FROM refresh_sessions WHERE id = ?`

func (q *queries) DeleteRefreshSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteRefreshSession, id)
	return err
}

const deleteExpiredRefreshSessions = `DELETE FROM refresh_sessions WHERE expires_at <= ?`

func (q *queries) DeleteExpiredRefreshSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredRefreshSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

type refreshSessionsRepo struct {
	q *queries
}

func (r *refreshSessionsRepo) CreateRefreshSession(ctx context.Context, s domain.RefreshSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return mapConstraint(r.q.CreateRefreshSession(ctx, refreshSessionRow{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: toMillis(s.ExpiresAt),
		CreatedAt: toMillis(s.CreatedAt),
	}))
}

func (r *refreshSessionsRepo) FindValidRefreshSession(
	ctx context.Context,
	id string,
	now time.Time,
) (domain.RefreshSession, error) {
	row, err := r.q.GetValidRefreshSession(ctx, id, toMillis(now))
	if err != nil {
		return domain.RefreshSession{}, mapNotFound(err)
	}
	return domain.RefreshSession{
		ID:        row.ID,
		UserID:    row.UserID,
		ExpiresAt: fromMillis(row.ExpiresAt),
		CreatedAt: fromMillis(row.CreatedAt),
	}, nil
}

func (r *refreshSessionsRepo) DeleteRefreshSession(ctx context.Context, id string) error {
	return r.q.DeleteRefreshSession(ctx, id)
}

func (r *refreshSessionsRepo) DeleteExpiredRefreshSessions(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredRefreshSessions(ctx, toMillis(now))
}

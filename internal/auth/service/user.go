package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type UserService struct {
	Store store.Store
}

// Profile fetches the account behind an access token subject. A token can
// outlive its account, so a miss is reported as ErrAccountUnavailable.
func (s *UserService) Profile(ctx context.Context, username string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrAccountUnavailable
		}
		return domain.User{}, err
	}
	return u, nil
}

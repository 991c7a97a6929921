package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshBuffer makes a Session refresh slightly before the access token expires.
const refreshBuffer = 30 * time.Second

// ErrNoRefreshToken is returned when a Session needs a refresh token it does not have.
var ErrNoRefreshToken = errors.New("authsdk: no refresh token available")

// Session represents an authenticated session with automatic token refresh.
// All Session methods automatically handle token expiration and refresh when needed.
type Session struct {
	client *SDKClient

	mu               sync.RWMutex
	accessToken      string
	refreshToken     string
	expiresAt        time.Time
	refreshExpiresAt time.Time
}

// newSession creates a new authenticated session from a token response.
func newSession(client *SDKClient, tokens *MobileTokenResponse) *Session {
	return &Session{
		client:           client,
		accessToken:      tokens.AccessToken,
		refreshToken:     tokens.RefreshToken,
		expiresAt:        tokens.AccessTokenExpiry().Add(-refreshBuffer),
		refreshExpiresAt: tokens.RefreshTokenExpiry(),
	}
}

// SignOut revokes the refresh token, ending this session.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.refreshToken = ""
	s.mu.Unlock()

	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	return s.client.MobileSignOut(ctx, refreshToken)
}

// Refresh forces a new access token regardless of the current one's expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

func (s *Session) refreshLocked(ctx context.Context) error {
	if s.refreshToken == "" {
		return ErrNoRefreshToken
	}

	tokens, err := s.client.MobileRefresh(ctx, s.refreshToken)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
	s.expiresAt = tokens.AccessTokenExpiry().Add(-refreshBuffer)
	s.refreshExpiresAt = tokens.RefreshTokenExpiry()
	return nil
}

// AccessToken returns the current access token without checking expiration.
// For most use cases, prefer using the Session methods which handle refresh automatically.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// RefreshExpiresAt returns when the refresh session ends. It does not move
// on refresh.
func (s *Session) RefreshExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshExpiresAt
}

// GetProfile returns the signed-in user's profile.
func (s *Session) GetProfile(ctx context.Context) (*UserProfileResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/user/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var profile UserProfileResponse
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

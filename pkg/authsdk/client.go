package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SDKClient is a client for the tollgate authentication service. It covers
// the public endpoints and creates authenticated Sessions for mobile-style
// clients. Web endpoints rely on the refresh_token cookie, which is kept in
// the HTTPClient's cookie jar.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client with an in-memory cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// AuthenticateWithPassword signs in through the mobile endpoint and wraps
// the tokens in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, error) {
	tokens, err := c.MobileSignIn(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// AuthenticateWithRefreshToken creates a session from a stored refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	tokens, err := c.MobileRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
// The session refreshes the access token once accessExpiresAt has passed.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, accessExpiresAt time.Time) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    accessExpiresAt.Add(-refreshBuffer),
	}
}

// RefreshCookie returns the refresh token the server last set for web
// clients, or "" when the jar holds none.
func (c *SDKClient) RefreshCookie() string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	req, err := http.NewRequest(http.MethodPost, c.url("/api/auth/refresh"), nil)
	if err != nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(req.URL) {
		if ck.Name == RefreshTokenCookie {
			return ck.Value
		}
	}
	return ""
}

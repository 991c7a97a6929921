package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SignUp registers an account. The account must verify its email before
// password sign-in succeeds.
func (c *SDKClient) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	var out SignUpResponse
	if err := c.postJSON(ctx, "/api/auth/sign-up", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn authenticates a web client. The refresh token is stored as a cookie.
func (c *SDKClient) SignIn(ctx context.Context, username, password string) (*WebTokenResponse, error) {
	var out WebTokenResponse
	req := SignInRequest{Username: username, Password: password}
	if err := c.postJSON(ctx, "/api/auth/sign-in", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the refresh cookie for a new access token.
func (c *SDKClient) Refresh(ctx context.Context) (*WebTokenResponse, error) {
	var out WebTokenResponse
	if err := c.postJSON(ctx, "/api/auth/refresh", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut revokes the refresh cookie's session and clears the cookie.
func (c *SDKClient) SignOut(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// RequestVerificationEmail asks for a fresh verification code. The server
// answers the same way whether or not the address is known.
func (c *SDKClient) RequestVerificationEmail(ctx context.Context, email string) error {
	path := "/api/auth/request-verification-email?" + url.Values{"email": {email}}.Encode()
	resp, err := c.doRequest(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// VerifyEmail submits a verification code. On success the account is
// signed in as a web client.
func (c *SDKClient) VerifyEmail(ctx context.Context, email, otp string) (*WebTokenResponse, error) {
	var out WebTokenResponse
	req := VerifyEmailRequest{Email: email, OTP: otp}
	if err := c.postJSON(ctx, "/api/auth/verify-email", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// MobileSignIn authenticates and returns both tokens in the body.
func (c *SDKClient) MobileSignIn(ctx context.Context, username, password string) (*MobileTokenResponse, error) {
	var out MobileTokenResponse
	req := SignInRequest{Username: username, Password: password}
	if err := c.postJSON(ctx, "/api/auth/mobile/sign-in", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// MobileRefresh exchanges a refresh token for a new access token. The
// refresh token itself is returned unchanged.
func (c *SDKClient) MobileRefresh(ctx context.Context, refreshToken string) (*MobileTokenResponse, error) {
	var out MobileTokenResponse
	req := RefreshTokenRequest{RefreshToken: refreshToken}
	if err := c.postJSON(ctx, "/api/auth/mobile/refresh", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// MobileSignOut revokes a refresh token.
func (c *SDKClient) MobileSignOut(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/mobile/sign-out", bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

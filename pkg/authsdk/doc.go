/*
Package authsdk provides a client SDK for the tollgate authentication service.

# Overview

The package exposes the service's request and response types, its error body
(APIError) and a client for every public endpoint. It is organized around two
types:

  - SDKClient: registration, email verification, web and mobile sign-in, health and JWKS
  - Session: authenticated operations with automatic access token refresh

# Registration and Email Verification

New accounts cannot sign in with a password until their email address is
confirmed with the one-time code the service mails out:

	client := authsdk.NewSDKClient("https://auth.example.com")

	_, err := client.SignUp(ctx, authsdk.SignUpRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})

	// The code arrives by email. VerifyEmail also signs the account in.
	tokens, err := client.VerifyEmail(ctx, "alice@example.com", code)

	// Lost the mail? The server answers 204 whether or not the address exists.
	err = client.RequestVerificationEmail(ctx, "alice@example.com")

# Web vs Mobile

Web endpoints return only the access token. The refresh token is set as an
HttpOnly refresh_token cookie scoped to /api/auth, which NewSDKClient keeps in
its cookie jar:

	tokens, err := client.SignIn(ctx, "alice", "correct-horse-battery")
	tokens, err = client.Refresh(ctx)
	err = client.SignOut(ctx)

Mobile endpoints return both tokens in the body with absolute expiries in
milliseconds since the Unix epoch:

	tokens, err := client.MobileSignIn(ctx, "alice", "correct-horse-battery")
	tokens, err = client.MobileRefresh(ctx, tokens.RefreshToken)
	err = client.MobileSignOut(ctx, tokens.RefreshToken)

Refreshing never rotates the refresh token: the same value is returned until
the session expires or is signed out.

# Sessions

A Session wraps mobile tokens and refreshes the access token 30 seconds before
it expires:

	session, err := client.AuthenticateWithPassword(ctx, "alice", "correct-horse-battery")
	if err != nil {
		return err
	}
	profile, err := session.GetProfile(ctx)
	err = session.SignOut(ctx)

Sessions are safe for concurrent use.

# Error Handling

Every non-2xx response is returned as *APIError. The predefined errors match
by code:

	_, err := client.SignIn(ctx, "alice", "correct-horse-battery")
	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, authsdk.ErrEmailVerificationRequired):
		errors.As(err, &apiErr)
		_ = client.RequestVerificationEmail(ctx, apiErr.Email)
	case errors.Is(err, authsdk.ErrUnauthorized):
		// wrong username or password
	}
*/
package authsdk

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestWebRefreshAndSignOut tests the browser flow:
// 1. Verify email, which signs in and sets the refresh cookie
// 2. Refresh the access token from the cookie
// 3. Verify the refresh token is NOT rotated
// 4. Sign out and check the cookie and session are gone
func TestWebRefreshAndSignOut(t *testing.T) {
	svc := setupAuthContainer(t)
	client := signUpAndVerify(t, svc, "alice", "alice@example.com")

	oldRefreshToken := client.RefreshCookie()
	require.NotEmpty(t, oldRefreshToken, "verification should set the refresh cookie")

	tokens, err := client.Refresh(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.Equal(t, oldRefreshToken, client.RefreshCookie(), "Refresh token should not be rotated")

	t.Logf("Refresh successful, refresh token unchanged")

	require.NoError(t, client.SignOut(t.Context()))
	require.Empty(t, client.RefreshCookie(), "Sign-out should clear the cookie")

	_, err = client.MobileRefresh(t.Context(), oldRefreshToken)
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Signed-out session should be rejected")
}

// TestMobileRefresh tests the native flow with tokens in the body.
func TestMobileRefresh(t *testing.T) {
	svc := setupAuthContainer(t)
	client := signUpAndVerify(t, svc, "bob", "bob@example.com")

	session, err := client.AuthenticateWithPassword(t.Context(), "bob", defaultPassword)
	require.NoError(t, err)

	oldRefreshToken := session.RefreshToken()
	oldExpiry := session.RefreshExpiresAt()

	require.NoError(t, session.Refresh(t.Context()))
	require.Equal(t, oldRefreshToken, session.RefreshToken(), "Refresh token should not be rotated")
	require.True(t, oldExpiry.Equal(session.RefreshExpiresAt()), "Session expiry should not move")

	profile, err := session.GetProfile(t.Context())
	require.NoError(t, err)
	require.Equal(t, "bob", profile.Username)
	require.True(t, profile.EmailVerified)

	require.NoError(t, session.SignOut(t.Context()))

	_, err = client.AuthenticateWithRefreshToken(t.Context(), oldRefreshToken)
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Signed-out session should be rejected")
}

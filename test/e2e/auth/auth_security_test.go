package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestInvalidCredentials verifies that sign-in with a wrong password or an
// unknown username is rejected the same way.
func TestInvalidCredentials(t *testing.T) {
	svc := setupAuthContainer(t)
	client := signUpAndVerify(t, svc, "carol", "carol@example.com")

	_, err := client.MobileSignIn(t.Context(), "carol", "wrong-password")
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Invalid password should be rejected")

	_, err = client.MobileSignIn(t.Context(), "nobody", defaultPassword)
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Unknown user should be rejected")

	t.Logf("Invalid credentials correctly rejected with 401")
}

// TestUnverifiedAccountCannotSignIn verifies the email verification gate.
func TestUnverifiedAccountCannotSignIn(t *testing.T) {
	svc := setupAuthContainer(t)
	client := svc.client()

	_, err := client.SignUp(t.Context(), authsdk.SignUpRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Password: defaultPassword,
	})
	require.NoError(t, err)

	_, err = client.SignIn(t.Context(), "dave", defaultPassword)
	assertAPIError(t, err, authsdk.ErrEmailVerificationRequired, "Unverified account should be gated")

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "dave@example.com", apiErr.Email)
}

// TestVerificationResendIsNotAnOracle verifies unknown addresses get the same
// answer as real ones and no mail.
func TestVerificationResendIsNotAnOracle(t *testing.T) {
	svc := setupAuthContainer(t)
	client := svc.client()

	before := len(svc.otps(t))
	require.NoError(t, client.RequestVerificationEmail(t.Context(), "nobody@example.com"))

	// Give the dispatcher a moment; nothing should arrive.
	time.Sleep(time.Second)
	require.Len(t, svc.otps(t), before)

	_, err := client.VerifyEmail(t.Context(), "nobody@example.com", "123456")
	assertAPIError(t, err, authsdk.ErrEmailVerificationFailed, "Unknown address should fail like a wrong code")
}

// TestInvalidAccessToken verifies that the profile endpoint rejects invalid tokens.
func TestInvalidAccessToken(t *testing.T) {
	svc := setupAuthContainer(t)
	client := svc.client()

	// Create a session with invalid token to test server-side validation
	invalidSession := client.NewSessionFromTokens(
		"invalid-token-12345", // Invalid access token
		"",                    // No refresh token
		time.Now().Add(time.Hour),
	)

	_, err := invalidSession.GetProfile(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized, "Invalid token should be rejected")

	t.Logf("Invalid token correctly rejected with 401")
}

// TestDuplicateRegistration verifies the conflict response lists each taken field.
func TestDuplicateRegistration(t *testing.T) {
	svc := setupAuthContainer(t)
	signUpAndVerify(t, svc, "erin", "erin@example.com")

	_, err := svc.client().SignUp(t.Context(), authsdk.SignUpRequest{
		Username: "erin",
		Email:    "erin@example.com",
		Password: defaultPassword,
	})
	assertAPIError(t, err, authsdk.ErrResourceAlreadyExists, "Duplicate registration should conflict")

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Contains(t, apiErr.ValidationErrors, "username")
	require.Contains(t, apiErr.ValidationErrors, "email")
}

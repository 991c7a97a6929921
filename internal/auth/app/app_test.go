package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// lockedBuffer collects log output written from dispatcher goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var codePattern = regexp.MustCompile(`verification code: (\d+)`)

func TestApplicationEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	logs := &lockedBuffer{}

	cfg := Config{
		Issuer:               "tollgate-auth",
		Audience:             []string{"tollgate-api"},
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      time.Hour,
		KeyMode:              KeyModeEphemeral,
		Algorithm:            "ES256",
		DatabaseFile:         filepath.Join(dir, "auth.db"),
		PepperFile:           filepath.Join(dir, "pepper"),
		RedisAddr:            mr.Addr(),
		OTPCachePrefix:       "otp:email-verification",
		OTPTTL:               10 * time.Minute,
		OTPLength:            6,
		MailMode:             MailModeLog,
		MailWorkers:          1,
		Port:                 8080,
		ShutdownGracePeriod:  5 * time.Second,
		HousekeepingInterval: time.Minute,
	}

	application, err := NewWithLogger(cfg, slog.New(slog.NewJSONHandler(logs, nil)))
	require.NoError(t, err)
	application.Start()
	t.Cleanup(func() { require.NoError(t, application.Shutdown()) })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	c := authsdk.NewSDKClient(srv.URL)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	_, err = c.SignUp(ctx, authsdk.SignUpRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	// Log mode prints the message body once the dispatcher delivers it.
	var code string
	require.Eventually(t, func() bool {
		m := codePattern.FindStringSubmatch(logs.String())
		if m == nil {
			return false
		}
		code = m[1]
		return true
	}, 5*time.Second, 20*time.Millisecond)
	require.Len(t, code, 6)

	_, err = c.MobileSignIn(ctx, "alice", "correct-horse-battery")
	require.ErrorIs(t, err, authsdk.ErrEmailVerificationRequired)

	verified, err := c.VerifyEmail(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, verified.AccessToken)

	session, err := c.AuthenticateWithPassword(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)
	profile, err := session.GetProfile(ctx)
	require.NoError(t, err)
	require.True(t, profile.EmailVerified)

	jwks, err := c.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	require.NoError(t, session.SignOut(ctx))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := NewWithLogger(Config{KeyMode: KeyModeEphemeral}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}

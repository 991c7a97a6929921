package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tollgate/internal/auth/cache"
	"github.com/aussiebroadwan/tollgate/internal/auth/mail"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type plainVerifier struct{}

func (plainVerifier) Hash(secret string) (string, error) { return "plain:" + secret, nil }
func (plainVerifier) Matches(secret, hash string) bool  { return hash == "plain:"+secret }

type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs, "no mail sent")
	body := o.msgs[len(o.msgs)-1].Body
	code, ok := strings.CutPrefix(body, "Enter the following email verification code: ")
	require.True(t, ok, "unexpected body %q", body)
	return code
}

type testServer struct {
	srv    *httptest.Server
	redis  *miniredis.Miniredis
	outbox *outbox
	tokens *service.TokenAuthority
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	mr := miniredis.RunT(t)
	rc := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rc.Close() })

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmES256,
		Issuer:    "tollgate-test",
		Audience:  []string{"tollgate-api"},
	})
	require.NoError(t, err)

	box := &outbox{}
	tokens := &service.TokenAuthority{
		KeyManager: km,
		Issuer:     "tollgate-test",
		Audience:   []string{"tollgate-api"},
		AccessTTL:  15 * time.Minute,
	}
	otp := &service.OTPService{
		Cache:       rc,
		Credentials: plainVerifier{},
		Config:      service.OTPConfig{TTL: 10 * time.Minute, Length: 6},
	}
	verification := &service.EmailVerificationService{Store: st, OTP: otp, Mail: box}

	r := NewRouter(km.KeySet, km.Verifier, "test", st, rc, slogx.Discard())
	r.AuthService = &service.AuthService{
		Store:       st,
		Tokens:      tokens,
		Credentials: plainVerifier{},
		RefreshTTL:  24 * time.Hour,
	}
	r.VerificationService = verification
	r.RegistrationService = &service.RegistrationService{
		Store:        st,
		Credentials:  plainVerifier{},
		Verification: verification,
	}
	r.UserService = &service.UserService{Store: st}
	// httptest serves plain HTTP; the cookie jar drops Secure cookies there.
	r.Cookies = CookieConfig{Secure: false}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, redis: mr, outbox: box, tokens: tokens}
}

func (s *testServer) client() *authsdk.SDKClient {
	return authsdk.NewSDKClient(s.srv.URL)
}

// signUpVerified registers an account and confirms its email with a
// throwaway client.
func (s *testServer) signUpVerified(t *testing.T, username, email, password string) {
	t.Helper()
	ctx := context.Background()
	c := s.client()

	_, err := c.SignUp(ctx, authsdk.SignUpRequest{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	_, err = c.VerifyEmail(ctx, email, s.outbox.lastCode(t))
	require.NoError(t, err)
}

// post sends a raw request, for bodies the SDK would never produce.
func (s *testServer) post(t *testing.T, path, contentType, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(s.srv.URL+path, contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func requireAPIError(t *testing.T, err error, want *authsdk.APIError) *authsdk.APIError {
	t.Helper()
	require.ErrorIs(t, err, want)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "got %T", err)
	require.Equal(t, want.StatusCode, apiErr.StatusCode)
	require.NotEmpty(t, apiErr.Path)
	require.NotEmpty(t, apiErr.Timestamp)
	return apiErr
}

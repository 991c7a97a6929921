package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/cache"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/httpx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tollgate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache cache.Cache

	AuthService         *service.AuthService
	VerificationService *service.EmailVerificationService
	RegistrationService *service.RegistrationService
	UserService         *service.UserService
	Cookies             CookieConfig
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	c cache.Cache,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cache:        c,
		logger:       logger,
		Cookies:      CookieConfig{Secure: true},
	}

	// Recover sits inside the logger so panics are logged with the request.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recover(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerWebAuth()
	r.registerMobileAuth()
	r.registerVerification()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tollgate Authentication Service API
//	@version		0.1.0
//	@description	Username/password authentication with email verification, JWT access tokens and long-lived refresh sessions.
//	@description
//	@description				Access tokens are signed with ES256 and can be verified using the JWKS endpoint.
//	@description				Web clients receive the refresh token as an HttpOnly cookie; mobile clients receive it in the body.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tollgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerWebAuth() {
	h := &WebAuthHandler{AuthService: r.AuthService, Cookies: r.Cookies}
	signUp := &RegistrationHandler{RegistrationService: r.RegistrationService}

	r.Mux.Handle("POST /api/auth/sign-up", signUp)
	r.Mux.HandleFunc("POST /api/auth/sign-in", h.HandleSignIn)
	r.Mux.HandleFunc("POST /api/auth/refresh", h.HandleRefresh)
	r.Mux.HandleFunc("POST /api/auth/sign-out", h.HandleSignOut)
}

func (r *Router) registerMobileAuth() {
	h := &MobileAuthHandler{AuthService: r.AuthService}

	r.Mux.HandleFunc("POST /api/auth/mobile/sign-in", h.HandleSignIn)
	r.Mux.HandleFunc("POST /api/auth/mobile/refresh", h.HandleRefresh)
	r.Mux.HandleFunc("POST /api/auth/mobile/sign-out", h.HandleSignOut)
}

func (r *Router) registerVerification() {
	h := &VerificationHandler{
		VerificationService: r.VerificationService,
		AuthService:         r.AuthService,
		Cookies:             r.Cookies,
	}

	r.Mux.HandleFunc("POST /api/auth/request-verification-email", h.HandleRequestEmail)
	r.Mux.HandleFunc("POST /api/auth/verify-email", h.HandleVerify)
}

func (r *Router) registerUsers() {
	h := &ProfileHandler{UserService: r.UserService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier, writeAuthFailure), // verify JWT (iss/aud/exp)
	)

	r.Mux.Handle("GET /api/user/me", secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.keys))
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache, r.keys))
}

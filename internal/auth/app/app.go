package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/cache"
	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/mail"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	cache      *cache.Redis
	keyManager *jwtx.KeyManager
	mailer     *mail.Dispatcher

	// Services
	tokenAuthority      *service.TokenAuthority
	otpService          *service.OTPService
	authService         *service.AuthService
	verificationService *service.EmailVerificationService
	registrationService *service.RegistrationService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService // nil when HOUSEKEEPING_INTERVAL=0

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	return NewWithLogger(cfg, slogx.New(slogx.Config{
		Service: "tollgate-auth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	}))
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg, logger: logger}

	// Set pepper path for password and OTP hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.cache = cache.NewRedis(cache.RedisConfig{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})

	if err := app.initMail(); err != nil {
		_ = app.cache.Close()
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Start launches the background workers. Run calls it; tests that drive
// Handler directly call it themselves.
func (app *Application) Start() {
	app.mailer.Start()
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.Start()

	// Redis dials lazily; an outage shows on /readyz rather than stopping startup.
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := app.cache.Ping(pingCtx); err != nil {
		app.logger.Warn("otp cache unreachable", "addr", app.cfg.RedisAddr, "error", err)
	}
	cancel()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}

	// Requests are done; deliver what they queued.
	if err := app.mailer.Stop(ctx); err != nil {
		app.logger.Error("mail queue not drained", "error", err)
	}

	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing cache", "error", err)
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initMail picks the delivery backend and puts the async dispatcher in front of it.
func (app *Application) initMail() error {
	var sender mail.Sender
	switch app.cfg.MailMode {
	case MailModeSMTP:
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.MailFrom,
		})
		if err != nil {
			return fmt.Errorf("failed to configure smtp: %w", err)
		}
		sender = smtp
		app.logger.Info("smtp mail delivery enabled", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	default:
		sender = mail.Log{Logger: app.logger}
		app.logger.Warn("mail delivery disabled, messages are logged", "mail_mode", app.cfg.MailMode)
	}

	app.mailer = mail.NewDispatcher(sender, mail.DispatcherOptions{
		Workers:       app.cfg.MailWorkers,
		RatePerSecond: app.cfg.MailRatePerSecond,
		MaxRetries:    app.cfg.MailMaxRetries,
	}, app.logger)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	credentials := service.Argon2Verifier{}

	app.tokenAuthority = &service.TokenAuthority{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTokenTTL,
	}

	app.otpService = &service.OTPService{
		Cache:       app.cache,
		Credentials: credentials,
		Config: service.OTPConfig{
			CachePrefix: app.cfg.OTPCachePrefix,
			TTL:         app.cfg.OTPTTL,
			Length:      app.cfg.OTPLength,
		},
	}

	app.authService = &service.AuthService{
		Store:       app.db,
		Tokens:      app.tokenAuthority,
		Credentials: credentials,
		RefreshTTL:  app.cfg.RefreshTokenTTL,
	}

	app.verificationService = &service.EmailVerificationService{
		Store: app.db,
		OTP:   app.otpService,
		Mail:  app.mailer,
	}

	app.registrationService = &service.RegistrationService{
		Store:        app.db,
		Credentials:  credentials,
		Verification: app.verificationService,
	}

	app.userService = &service.UserService{Store: app.db}

	if app.cfg.HousekeepingInterval > 0 {
		app.housekeepingService = service.NewHousekeepingService(
			app.db,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	} else {
		app.logger.Info("housekeeping disabled")
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.cache,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.VerificationService = app.verificationService
	router.RegistrationService = app.registrationService
	router.UserService = app.userService
	router.Cookies = httpapi.CookieConfig{Secure: app.cfg.CookieSecure}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/caarlos0/env/v11"
)

const (
	KeyModePEM       = "pem"
	KeyModeEphemeral = "ephemeral"

	MailModeSMTP = "smtp"
	MailModeLog  = "log"
)

type Config struct {
	Issuer          string        `env:"AUTH_ISSUER"            envDefault:"tollgate-auth"`
	Audience        []string      `env:"AUTH_AUDIENCE"          envDefault:"tollgate-api" envSeparator:","`
	AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`

	KeyMode        string `env:"AUTH_KEY_MODE"         envDefault:"pem"`   // pem or ephemeral
	Algorithm      string `env:"AUTH_ALGORITHM"        envDefault:"RS256"` // RS256, ES256 or EdDSA; ephemeral keys only
	RSABits        int    `env:"AUTH_RSA_BITS"`                            // 0 uses the jwtx default
	PrivateKeyFile string `env:"AUTH_PRIVATE_KEY_FILE"`
	PublicKeyFile  string `env:"AUTH_PUBLIC_KEY_FILE"` // Optional: checked against the private key

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE"   envDefault:"pepper"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	OTPCachePrefix string        `env:"OTP_CACHE_PREFIX" envDefault:"otp:email-verification"`
	OTPTTL         time.Duration `env:"OTP_TTL"          envDefault:"10m"`
	OTPLength      int           `env:"OTP_LENGTH"       envDefault:"6"`

	MailMode          string  `env:"MAIL_MODE"            envDefault:"log"` // smtp or log
	SMTPHost          string  `env:"SMTP_HOST"`
	SMTPPort          int     `env:"SMTP_PORT"            envDefault:"587"`
	SMTPUsername      string  `env:"SMTP_USERNAME"`
	SMTPPassword      string  `env:"SMTP_PASSWORD"`
	MailFrom          string  `env:"MAIL_FROM"            envDefault:"no-reply@tollgate.local"`
	MailWorkers       int     `env:"MAIL_WORKERS"         envDefault:"2"`
	MailRatePerSecond float64 `env:"MAIL_RATE_PER_SECOND" envDefault:"5"`
	MailMaxRetries    uint64  `env:"MAIL_MAX_RETRIES"     envDefault:"3"`

	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	Env                  string        `env:"ENV"                   envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                 int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"` // 0 disables
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every setting the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER must not be empty"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL))
	}
	if c.RefreshTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_TOKEN_TTL must be positive, got %s", c.RefreshTokenTTL))
	}

	switch c.KeyMode {
	case KeyModePEM:
		if c.PrivateKeyFile == "" {
			errs = append(errs, errors.New("AUTH_PRIVATE_KEY_FILE is required when AUTH_KEY_MODE=pem"))
		}
	case KeyModeEphemeral:
	default:
		errs = append(errs, fmt.Errorf("AUTH_KEY_MODE must be %q or %q, got %q", KeyModePEM, KeyModeEphemeral, c.KeyMode))
	}

	otp := service.OTPConfig{CachePrefix: c.OTPCachePrefix, TTL: c.OTPTTL, Length: c.OTPLength}
	if err := otp.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.MailMode {
	case MailModeSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when MAIL_MODE=smtp"))
		}
	case MailModeLog:
	default:
		errs = append(errs, fmt.Errorf("MAIL_MODE must be %q or %q, got %q", MailModeSMTP, MailModeLog, c.MailMode))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.HousekeepingInterval < 0 {
		errs = append(errs, fmt.Errorf("HOUSEKEEPING_INTERVAL must not be negative, got %s", c.HousekeepingInterval))
	}

	return errors.Join(errs...)
}

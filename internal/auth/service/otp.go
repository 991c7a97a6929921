package service

import (
	"context"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/cache"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	DefaultOTPCachePrefix = "otp:email-verification"
	DefaultOTPTTL         = 10 * time.Minute
	DefaultOTPLength      = 6

	MinOTPLength = 4
	MaxOTPLength = 9
)

type OTPConfig struct {
	CachePrefix string
	TTL         time.Duration
	Length      int
}

// Validate checks the config after defaults have been applied.
func (c OTPConfig) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("otp ttl must be positive, got %s", c.TTL)
	}
	if c.Length < MinOTPLength || c.Length > MaxOTPLength {
		return fmt.Errorf("otp length must be between %d and %d, got %d", MinOTPLength, MaxOTPLength, c.Length)
	}
	return nil
}

func (c OTPConfig) withDefaults() OTPConfig {
	if c.CachePrefix == "" {
		c.CachePrefix = DefaultOTPCachePrefix
	}
	if c.TTL == 0 {
		c.TTL = DefaultOTPTTL
	}
	if c.Length == 0 {
		c.Length = DefaultOTPLength
	}
	return c
}

// OTPService issues numeric one-time codes bound to a user id. Only the
// argon2id hash of a code is cached; a new code replaces any pending one.
type OTPService struct {
	Cache       cache.Cache
	Credentials CredentialVerifier
	Config      OTPConfig
}

func (s *OTPService) key(userID string) string {
	return s.Config.withDefaults().CachePrefix + ":" + userID
}

// GenerateAndStore creates a fresh code for userID, stores its hash with
// the configured TTL and returns the plaintext for delivery.
func (s *OTPService) GenerateAndStore(ctx context.Context, userID string) (string, error) {
	cfg := s.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	code, err := generateCode(cfg.Length)
	if err != nil {
		return "", err
	}

	hash, err := credentialsOrDefault(s.Credentials).Hash(code)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	if err := s.Cache.Set(ctx, s.key(userID), hash, cfg.TTL); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	slogx.FromContext(ctx).Debug("otp issued",
		slog.String("user_id", userID),
		slog.Duration("ttl", cfg.TTL),
	)
	return code, nil
}

// IsValid reports whether code matches the pending code for userID. A
// missing or expired entry is simply invalid. The entry is left in place.
func (s *OTPService) IsValid(ctx context.Context, userID, code string) (bool, error) {
	hash, err := s.Cache.Get(ctx, s.key(userID))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return false, nil
		}
		return false, fmt.Errorf("load otp: %w", err)
	}
	return credentialsOrDefault(s.Credentials).Matches(code, hash), nil
}

// Delete drops the pending code for userID. Deleting nothing is not an error.
func (s *OTPService) Delete(ctx context.Context, userID string) error {
	if err := s.Cache.Delete(ctx, s.key(userID)); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// generateCode derives a zero-padded numeric code from a throwaway HOTP
// secret and counter, both drawn from crypto/rand.
func generateCode(length int) (string, error) {
	seed, err := cryptox.RandomBytes(20 + 8)
	if err != nil {
		return "", err
	}

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(seed[:20])
	counter := binary.BigEndian.Uint64(seed[20:])

	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.Digits(length),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return code, nil
}

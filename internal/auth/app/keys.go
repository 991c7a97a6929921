package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager that signs access tokens.
//
// Key modes:
//   - "pem": the private key is read from AUTH_PRIVATE_KEY_FILE (PKCS#8,
//     PKCS#1 or SEC 1). If AUTH_PUBLIC_KEY_FILE is set it must hold the
//     matching public key. The kid is derived from the key, so tokens stay
//     valid across restarts.
//   - "ephemeral": a key is generated in memory with AUTH_ALGORITHM. All
//     tokens become invalid when the service restarts.
//
// Missing or mismatched key material is a startup error.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  cfg.Audience,
		RSABits:   cfg.RSABits,
	}

	switch cfg.KeyMode {
	case KeyModePEM:
		privatePEM, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}

		var publicPEM []byte
		if cfg.PublicKeyFile != "" {
			publicPEM, err = os.ReadFile(cfg.PublicKeyFile)
			if err != nil {
				return nil, fmt.Errorf("read public key: %w", err)
			}
		}

		// The key type decides the algorithm.
		opts.Algorithm = ""
		km, err := jwtx.NewKeyManagerFromPEM(opts, privatePEM, publicPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}

		logger.Info("signing key loaded",
			"algorithm", km.Algorithm(),
			"issuer", cfg.Issuer,
			"public_key_checked", len(publicPEM) > 0,
		)
		return km, nil

	case KeyModeEphemeral:
		km, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing key",
			"algorithm", km.Algorithm(),
			"issuer", cfg.Issuer,
		)
		logger.Warn("all existing tokens are now invalid due to key rotation on startup")
		return km, nil

	default:
		return nil, fmt.Errorf("unknown key mode %q", cfg.KeyMode)
	}
}

package app

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestInitAuthKeys(t *testing.T) {
	t.Parallel()

	t.Run("ephemeral", func(t *testing.T) {
		km, err := InitAuthKeys(Config{
			KeyMode:   KeyModeEphemeral,
			Algorithm: jwtx.AlgorithmEdDSA,
			Issuer:    "tollgate-auth",
		}, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, jwtx.AlgorithmEdDSA, km.Algorithm())
		require.True(t, km.IsReady())
	})

	t.Run("pem derives the algorithm from the key", func(t *testing.T) {
		keyPEM, err := cryptox.GenerateES256Key()
		require.NoError(t, err)

		km, err := InitAuthKeys(Config{
			KeyMode:        KeyModePEM,
			Algorithm:      jwtx.AlgorithmRS256,
			Issuer:         "tollgate-auth",
			PrivateKeyFile: writeKey(t, keyPEM),
		}, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, jwtx.AlgorithmES256, km.Algorithm())

		again, err := InitAuthKeys(Config{
			KeyMode:        KeyModePEM,
			Issuer:         "tollgate-auth",
			PrivateKeyFile: writeKey(t, keyPEM),
		}, slogx.Discard())
		require.NoError(t, err)
		require.Equal(t, km.KeySet.PublicJWKS(), again.KeySet.PublicJWKS(), "kid is stable across restarts")
	})

	t.Run("missing key file fails fast", func(t *testing.T) {
		_, err := InitAuthKeys(Config{
			KeyMode:        KeyModePEM,
			Issuer:         "tollgate-auth",
			PrivateKeyFile: filepath.Join(t.TempDir(), "missing.pem"),
		}, slogx.Discard())
		require.Error(t, err)
	})

	t.Run("mismatched public key fails fast", func(t *testing.T) {
		priv, err := cryptox.GenerateES256Key()
		require.NoError(t, err)
		other, err := cryptox.GenerateES256Key()
		require.NoError(t, err)
		otherKey, err := cryptox.ParsePrivateKeyPEM(other)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(otherKey.Public())
		require.NoError(t, err)
		pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

		_, err = InitAuthKeys(Config{
			KeyMode:        KeyModePEM,
			Issuer:         "tollgate-auth",
			PrivateKeyFile: writeKey(t, priv),
			PublicKeyFile:  writeKey(t, pubPEM),
		}, slogx.Discard())
		require.Error(t, err)
	})
}

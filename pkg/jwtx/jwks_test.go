package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWK_RoundTrip(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name string
		alg  string
		kty  string
		pub  interface{ Equal(crypto.PublicKey) bool }
	}{
		{"RSA", AlgorithmRS256, "RSA", &rsaKey.PublicKey},
		{"EC", AlgorithmES256, "EC", &ecKey.PublicKey},
		{"OKP", AlgorithmEdDSA, "OKP", edPub},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwk, err := NewJWK("kid-1", tt.alg, tt.pub)
			require.NoError(t, err)
			require.Equal(t, tt.kty, jwk.Kty)
			require.Equal(t, "sig", jwk.Use)
			require.Equal(t, tt.alg, jwk.Alg)

			parsed, err := jwk.PublicKey()
			require.NoError(t, err)
			require.True(t, tt.pub.Equal(parsed))

			pemStr, err := jwk.PEM()
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----"))

			block, _ := pem.Decode([]byte(pemStr))
			require.NotNil(t, block)
			fromPEM, err := x509.ParsePKIXPublicKey(block.Bytes)
			require.NoError(t, err)
			require.True(t, tt.pub.Equal(fromPEM))
		})
	}
}

func TestJWK_ECCoordinatesArePadded(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	jwk, err := NewJWK("kid", AlgorithmES256, &key.PublicKey)
	require.NoError(t, err)
	require.Len(t, jwk.X, 43)
	require.Len(t, jwk.Y, 43)
}

func TestJWK_UnsupportedKeys(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = NewJWK("kid", AlgorithmES256, &p384.PublicKey)
	require.Error(t, err)

	_, err = JWK{Kty: "oct"}.PublicKey()
	require.Error(t, err)

	_, err = JWK{Kty: "OKP", Crv: "X25519"}.PublicKey()
	require.Error(t, err)
}

func TestJWK_Thumbprint(t *testing.T) {
	// RFC 7638 section 3.1 example key.
	jwk := JWK{
		Kty: "RSA",
		E:   "AQAB",
		N: "0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAtVT86zwu1RK7aPFFxuhDR1L6tSoc_BJECPebWKRXjBZCiFV4n3oknjhMstn6" +
			"4tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FDW2QvzqY368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n91Cb" +
			"OpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0fM4lFd2NcRwr3XPksINHaQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw",
	}

	tp, err := jwk.Thumbprint()
	require.NoError(t, err)
	require.Equal(t, "NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs", tp)

	jwk.Kid = "ignored"
	jwk.Alg = AlgorithmRS256
	again, err := jwk.Thumbprint()
	require.NoError(t, err)
	require.Equal(t, tp, again, "thumbprint covers only required members")
}

func TestKeySet(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := NewSigner("kid-a", key)
	require.NoError(t, err)

	ks := NewKeySet()
	require.False(t, ks.IsReady())
	require.NotNil(t, ks.PublicJWKS().Keys, "empty set still serialises as an array")

	require.NoError(t, ks.AddSigner(signer))
	require.True(t, ks.IsReady())
	require.Error(t, ks.AddSigner(signer), "duplicate kid is rejected")

	pub, err := ks.Get("kid-a")
	require.NoError(t, err)
	require.True(t, key.PublicKey.Equal(pub))

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, ErrNoKey)

	other := NewKeySet()
	require.NoError(t, other.ResetFromJWKS(ks.PublicJWKS()))
	_, err = other.Get("kid-a")
	require.NoError(t, err)
}

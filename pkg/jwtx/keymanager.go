package jwtx

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
)

// DefaultRSABits is the modulus size used for generated RS256 keys.
const DefaultRSABits = 3072

// KeyManager wires one signing key to the KeySet published as JWKS and to
// a Verifier that checks tokens against that set.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet

	algorithm string
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// Algorithm specifies which signing algorithm to use.
	// Supported values: "RS256", "ES256", "EdDSA". For PEM-loaded keys it
	// may be left empty, in which case it is derived from the key type.
	Algorithm string

	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience is the list of audience values (aud) that will be validated.
	Audience []string

	// RSABits specifies the RSA key size for generated RS256 keys.
	RSABits int
}

// NewEphemeralKeyManager creates a KeyManager around a freshly generated key
// that only exists in memory. Every token it signed becomes unverifiable
// when the process restarts, so it is meant for development and tests.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	pemBytes, err := generateKeyPEM(opts.Algorithm, opts.RSABits)
	if err != nil {
		return nil, err
	}
	key, err := cryptox.ParsePrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, err
	}

	kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
	}

	return newKeyManager(opts, "tollgate-"+kid, key)
}

// NewKeyManagerFromPEM creates a KeyManager from operator-supplied key
// material. When publicPEM is non-empty it must be the public half of
// privatePEM. The kid is the RFC 7638 thumbprint of the public key so it
// stays stable across restarts.
func NewKeyManagerFromPEM(opts KeyManagerOptions, privatePEM, publicPEM []byte) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	key, err := cryptox.ParsePrivateKeyPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load private key: %w", err)
	}

	if len(publicPEM) > 0 {
		pub, err := cryptox.ParsePublicKeyPEM(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("jwtx: load public key: %w", err)
		}
		if err := cryptox.MatchPublicKey(key, pub); err != nil {
			return nil, fmt.Errorf("jwtx: %w", err)
		}
	}

	method, err := methodForKey(key)
	if err != nil {
		return nil, err
	}
	jwk, err := NewJWK("", method.Alg(), key.Public())
	if err != nil {
		return nil, err
	}
	kid, err := jwk.Thumbprint()
	if err != nil {
		return nil, err
	}

	return newKeyManager(opts, kid, key)
}

func newKeyManager(opts KeyManagerOptions, kid string, key crypto.Signer) (*KeyManager, error) {
	signer, err := NewSigner(kid, key)
	if err != nil {
		return nil, err
	}
	if opts.Algorithm != "" && opts.Algorithm != signer.Alg() {
		return nil, fmt.Errorf("jwtx: key is %s but algorithm %s was requested", signer.Alg(), opts.Algorithm)
	}

	keyset := NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
	}

	return &KeyManager{
		Signer: signer,
		Verifier: NewVerifier(keyset, VerifyOptions{
			Issuer:     opts.Issuer,
			Audience:   opts.Audience,
			Algorithms: []string{signer.Alg()},
		}),
		KeySet:    keyset,
		algorithm: signer.Alg(),
	}, nil
}

func generateKeyPEM(algorithm string, rsaBits int) ([]byte, error) {
	switch algorithm {
	case AlgorithmRS256, "":
		if rsaBits == 0 {
			rsaBits = DefaultRSABits
		}
		return cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		return cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", algorithm)
	}
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

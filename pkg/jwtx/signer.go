package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Supported JWT signing algorithms.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
	Public() crypto.PublicKey
}

// KeySigner signs tokens with an in-memory private key. The algorithm is
// derived from the key type.
type KeySigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
}

// NewSigner wraps an RSA, ECDSA P-256 or Ed25519 private key.
func NewSigner(kid string, key crypto.Signer) (*KeySigner, error) {
	if key == nil {
		return nil, errors.New("jwtx: nil signing key")
	}

	method, err := methodForKey(key)
	if err != nil {
		return nil, err
	}

	return &KeySigner{kid: kid, method: method, key: key}, nil
}

func methodForKey(key crypto.Signer) (jwt.SigningMethod, error) {
	switch key.(type) {
	case *rsa.PrivateKey:
		return jwt.SigningMethodRS256, nil
	case *ecdsa.PrivateKey:
		return jwt.SigningMethodES256, nil
	case ed25519.PrivateKey:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported signing key %T", key)
	}
}

func (s *KeySigner) Alg() string              { return s.method.Alg() }
func (s *KeySigner) KID() string              { return s.kid }
func (s *KeySigner) Public() crypto.PublicKey { return s.key.Public() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *KeySigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicJWK returns the JWK published so others can verify our tokens.
func (s *KeySigner) PublicJWK() JWK {
	j, _ := NewJWK(s.kid, s.Alg(), s.key.Public())
	return j
}

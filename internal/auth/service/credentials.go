package service

import "github.com/aussiebroadwan/tollgate/pkg/cryptox"

// CredentialVerifier hashes secrets (passwords and one-time codes) and
// compares a presented secret against a stored hash in constant time.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	Matches(secret, hash string) bool
}

// Argon2Verifier is the CredentialVerifier backed by cryptox's peppered argon2id.
type Argon2Verifier struct{}

func (Argon2Verifier) Hash(secret string) (string, error) {
	return cryptox.HashSecret(secret)
}

// Matches reports false for a malformed hash as well as for a wrong secret.
func (Argon2Verifier) Matches(secret, hash string) bool {
	return cryptox.VerifySecret(secret, hash) == nil
}

func credentialsOrDefault(c CredentialVerifier) CredentialVerifier {
	if c == nil {
		return Argon2Verifier{}
	}
	return c
}

package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into the stored credential.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// SHA256Hasher reproduces the legacy credential format: base64(sha256(password)).
// It is unsalted and unkeyed, so equal passwords share a hash and the format is
// open to precomputed-table attacks. Kept for compatibility with existing rows.
type SHA256Hasher struct{}

// Hash implements PasswordHasher.
func (SHA256Hasher) Hash(password string) (string, error) {
	return legacyDigest(password), nil
}

// BcryptHasher hashes with bcrypt at the given cost (DefaultCost when zero).
type BcryptHasher struct {
	Cost int
}

// Hash implements PasswordHasher.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NewPasswordHasher returns the hasher for a configured scheme name.
func NewPasswordHasher(scheme string) PasswordHasher {
	if strings.EqualFold(scheme, "bcrypt") {
		return BcryptHasher{}
	}
	return SHA256Hasher{}
}

// CheckPassword compares a stored credential of either format with a plaintext candidate.
func CheckPassword(stored, password string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(legacyDigest(password))) == 1
}

func legacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

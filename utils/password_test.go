package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// The legacy scheme is deterministic and unsalted: identical passwords always
// produce identical hashes. This is a known weakness of the stored format.
func TestSHA256Hasher_Deterministic(t *testing.T) {
	h := SHA256Hasher{}
	a, err := h.Hash("pw123456")
	require.NoError(t, err)
	b, err := h.Hash("pw123456")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	// base64 of a 32-byte digest
	assert.Len(t, a, 44)
	assert.True(t, CheckPassword(a, "pw123456"))
	assert.False(t, CheckPassword(a, "pw1234567"))
	assert.False(t, CheckPassword(a, ""))
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("secret-pw")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "secret-pw"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestNewPasswordHasher(t *testing.T) {
	assert.IsType(t, BcryptHasher{}, NewPasswordHasher("BCRYPT"))
	assert.IsType(t, SHA256Hasher{}, NewPasswordHasher("sha256"))
	assert.IsType(t, SHA256Hasher{}, NewPasswordHasher(""))
}

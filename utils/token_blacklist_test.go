package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Redis is not configured in unit tests, so the in-memory path is exercised.
func TestBlacklistToken_Memory(t *testing.T) {
	assert.False(t, IsTokenBlacklisted("tok-a"))

	BlacklistToken("tok-a", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted("tok-a"))

	// already expired tokens are not stored
	BlacklistToken("tok-b", time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted("tok-b"))
}

package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engforum/engforum/config"
)

func TestGenerateAndParseToken(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test_secret"})

	token, err := GenerateToken("u-1", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test_secret"})

	expired, err := GenerateToken("u-1", "alice", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	_, err = ParseToken("not-a-token")
	assert.Error(t, err)

	good, err := GenerateToken("u-1", "alice", time.Hour)
	require.NoError(t, err)
	config.Set(config.AppConfig{JWTSecret: "rotated"})
	_, err = ParseToken(good)
	assert.Error(t, err)
}

func TestParseToken_RejectsForeignIssuer(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "test_secret"})

	claims := Claims{
		UserID:           "u-1",
		Username:         "alice",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test_secret"))
	require.NoError(t, err)

	_, err = ParseToken(raw)
	assert.Error(t, err)
}

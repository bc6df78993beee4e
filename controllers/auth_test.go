package controllers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MakuD3v/Edu-Party-Mayhem/config"
	"github.com/MakuD3v/Edu-Party-Mayhem/models"
)

func TestTokenRoundTrip(t *testing.T) {
	assert := assert.New(t)
	config.C.SecretKey = "test-secret"

	token, err := signToken(models.User{ID: 42, Username: "alice"})
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(uint(42), claims.UserID)
	assert.Equal("alice", claims.Username)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	config.C.SecretKey = "test-secret"

	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongKey(t *testing.T) {
	config.C.SecretKey = "test-secret"
	token, err := signToken(models.User{ID: 1, Username: "bob"})
	require.NoError(t, err)

	config.C.SecretKey = "different-secret"
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	config.C.SecretKey = "test-secret"

	claims := Claims{
		UserID:   1,
		Username: "carol",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.C.SecretKey))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestUsernamePattern(t *testing.T) {
	assert := assert.New(t)

	assert.True(usernamePattern.MatchString("alice_99"))
	assert.True(usernamePattern.MatchString("Bob"))
	assert.False(usernamePattern.MatchString("with space"))
	assert.False(usernamePattern.MatchString("émile"))
	assert.False(usernamePattern.MatchString("drop;table"))
}

func TestValidateToken_RejectsUnexpectedSigningMethod(t *testing.T) {
	config.C.SecretKey = "test-secret"

	claims := Claims{
		UserID:   1,
		Username: "dave",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

package auth

import (
	"testing"

	"classfund/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	config.AppConfig = &config.Config{JWTSecret: []byte("test-secret")}

	token, err := GenerateJWT("user-1", "jana@example.com", "treasurer")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jana@example.com", claims.Email)
	assert.Equal(t, "treasurer", claims.Role)
	assert.Equal(t, "classfund", claims.Issuer)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	config.AppConfig = &config.Config{JWTSecret: []byte("test-secret")}

	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	config.AppConfig = &config.Config{JWTSecret: []byte("secret-a")}
	token, err := GenerateJWT("user-1", "jana@example.com", "parent")
	require.NoError(t, err)

	config.AppConfig = &config.Config{JWTSecret: []byte("secret-b")}
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

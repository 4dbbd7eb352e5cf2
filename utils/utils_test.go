package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundtrip(t *testing.T) {
	token, err := GenerateJWT("engineer@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)

	assert.True(t, ValidatePassword(hashed, "s3cret-pass"))
	assert.False(t, ValidatePassword(hashed, "wrong-pass"))
}

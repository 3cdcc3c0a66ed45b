package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, ComparePasswords(hash, "hunter22"))
	assert.Error(t, ComparePasswords(hash, "wrong"))
}

func TestGenerateSecureToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64, "hex doubles the byte length")

	other, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}

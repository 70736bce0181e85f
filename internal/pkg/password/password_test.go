package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, Verify("correct horse battery staple", hash))
	assert.False(t, Verify("wrong password", hash))
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")

	assert.Len(t, a, 64) // sha256 hex
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashToken("token-a"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("12345678"))
	assert.ErrorIs(t, Validate("1234567"), ErrTooShort)
	assert.ErrorIs(t, Validate(""), ErrTooShort)
}

package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(AccessTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(AccessTokenKey, "access-123"))
	require.NoError(t, store.Set(RefreshTokenKey, "refresh-456"))

	value, err := store.Get(AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "access-123", value)

	require.NoError(t, store.Delete(AccessTokenKey))
	_, err = store.Get(AccessTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// The other key is untouched
	value, err = store.Get(RefreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "refresh-456", value)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete("never-set"))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials", "tokens.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Get(AccessTokenKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(AccessTokenKey, "access-123"))
	require.NoError(t, store.Set(RefreshTokenKey, "refresh-456"))

	t.Run("values survive a reopen", func(t *testing.T) {
		reopened, err := NewFileStore(path)
		require.NoError(t, err)

		value, err := reopened.Get(AccessTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "access-123", value)

		value, err = reopened.Get(RefreshTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "refresh-456", value)
	})

	t.Run("file is private to the owner", func(t *testing.T) {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("delete removes a single key", func(t *testing.T) {
		require.NoError(t, store.Delete(AccessTokenKey))

		_, err := store.Get(AccessTokenKey)
		assert.ErrorIs(t, err, ErrKeyNotFound)

		value, err := store.Get(RefreshTokenKey)
		require.NoError(t, err)
		assert.Equal(t, "refresh-456", value)
	})

	t.Run("delete of a missing key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete("never-set"))
	})
}

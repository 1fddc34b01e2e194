package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyProvider(t *testing.T) {
	tests := []struct {
		name   string
		testFn func(t *testing.T, provider *FileKeyProvider)
	}{
		{
			name: "KeyExists returns false when no key file",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				assert.False(t, provider.KeyExists())
			},
		},
		{
			name: "StoreKey creates key file with correct permissions",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				key, err := GenerateKey()
				require.NoError(t, err)
				require.NoError(t, provider.StoreKey(key))
				assert.True(t, provider.KeyExists())

				info, err := os.Stat(provider.keyPath)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
			},
		},
		{
			name: "GetKey returns stored key",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				key, err := GenerateKey()
				require.NoError(t, err)
				require.NoError(t, provider.StoreKey(key))

				retrieved, err := provider.GetKey()
				require.NoError(t, err)
				assert.Equal(t, key, retrieved)
			},
		},
		{
			name: "GetKey returns error when no key file",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				_, err := provider.GetKey()
				assert.Error(t, err)
			},
		},
		{
			name: "StoreKey rejects wrong key size",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				err := provider.StoreKey([]byte("tooshort"))
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid key size")
			},
		},
		{
			name: "StoreKey creates directory if missing",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				nestedDir := filepath.Join(provider.keyPath+"_nested", "sub", "dir")
				provider.keyPath = filepath.Join(nestedDir, keyFileName)

				key, err := GenerateKey()
				require.NoError(t, err)
				require.NoError(t, provider.StoreKey(key))
				assert.True(t, provider.KeyExists())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewFileKeyProvider(t.TempDir())
			tt.testFn(t, provider)
		})
	}
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, keySize)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		k, err := GenerateKey()
		require.NoError(t, err)
		ks := string(k)
		assert.False(t, seen[ks], "duplicate key generated")
		seen[ks] = true
	}
}

func TestEnsure(t *testing.T) {
	t.Run("generates new key when none exists", func(t *testing.T) {
		provider := NewFileKeyProvider(t.TempDir())

		key, err := Ensure(provider)
		require.NoError(t, err)
		assert.Len(t, key, keySize)
		assert.True(t, provider.KeyExists())
	})

	t.Run("returns existing key when already present", func(t *testing.T) {
		provider := NewFileKeyProvider(t.TempDir())

		original, err := GenerateKey()
		require.NoError(t, err)
		require.NoError(t, provider.StoreKey(original))

		key, err := Ensure(provider)
		require.NoError(t, err)
		assert.Equal(t, original, key)
	})
}

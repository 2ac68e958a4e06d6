package google

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCredential() *Credential {
	return &Credential{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
		Scopes:       DefaultScopes,
		Strategy:     StrategyLocalServer,
	}
}

func TestFileTokenStore_Missing(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestFileTokenStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileTokenStore(path)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCredential()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCredential(), got)
	assert.Equal(t, path, store.Path())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		dirInfo, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestFileTokenStore_Overwrite(t *testing.T) {
	store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleCredential()))
	updated := sampleCredential()
	updated.AccessToken = "ya29.newer"
	require.NoError(t, store.Save(ctx, updated))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29.newer", got.AccessToken)
}

func TestFileTokenStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileTokenStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredential)
}

func TestKeyringTokenStore(t *testing.T) {
	store := NewKeyringTokenStore(keyring.NewArrayKeyring(nil))
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save(ctx, sampleCredential()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleCredential(), got)
}

func TestKeyringTokenStore_Corrupt(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: keyringItemKey, Data: []byte("{")}})

	_, err := NewKeyringTokenStore(ring).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredential)
}

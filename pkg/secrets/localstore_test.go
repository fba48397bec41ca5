package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) (*LocalSecretStore, string, string) {
	t.Helper()
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "secrets.json")
	store, err := NewLocalSecretStore(key, path, true)
	require.NoError(t, err)
	return store, key, path
}

func TestNewLocalSecretStoreMissingFile(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	_, err = NewLocalSecretStore(key, filepath.Join(t.TempDir(), "missing.json"), false)
	assert.Error(t, err)
}

func TestLocalSecretStorePersists(t *testing.T) {
	store, key, path := newTestLocalStore(t)

	require.NoError(t, StoreCredentials(store, "pdu0", Credentials{Username: "admin", Password: `pa"ss\w`}))
	require.NoError(t, store.StoreSecretByID("pdu1", "plain"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "admin")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewLocalSecretStore(key, path, false)
	require.NoError(t, err)
	creds, err := GetCredentials(reopened, "pdu0")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "admin", Password: `pa"ss\w`}, creds)

	all, err := reopened.ListSecrets()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "plain", all["pdu1"])
}

func TestLocalSecretStoreRemove(t *testing.T) {
	store, key, path := newTestLocalStore(t)

	require.NoError(t, store.StoreSecretByID("pdu0", "secret"))
	require.NoError(t, store.RemoveSecretByID("pdu0"))
	assert.True(t, errors.Is(store.RemoveSecretByID("pdu0"), ErrNotFound))

	reopened, err := NewLocalSecretStore(key, path, false)
	require.NoError(t, err)
	_, err = reopened.GetSecretByID("pdu0")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalSecretStoreWrongMasterKey(t *testing.T) {
	store, _, path := newTestLocalStore(t)
	require.NoError(t, store.StoreSecretByID("pdu0", "secret"))

	otherKey, err := GenerateMasterKey()
	require.NoError(t, err)
	reopened, err := NewLocalSecretStore(otherKey, path, false)
	require.NoError(t, err)

	_, err = reopened.GetSecretByID("pdu0")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = GetCredentials(reopened, "pdu0")
	assert.Error(t, err, "an undecryptable entry must not fall back to blank credentials")
}

func TestOpenStore(t *testing.T) {
	t.Setenv("MASTER_KEY", "")
	_, err := OpenStore(filepath.Join(t.TempDir(), "secrets.json"))
	assert.Error(t, err)

	key, err := GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv("MASTER_KEY", key)
	_, err = OpenStore("")
	assert.Error(t, err)

	store, err := OpenStore(filepath.Join(t.TempDir(), "secrets.json"))
	require.NoError(t, err)
	require.NoError(t, store.StoreSecretByID(DEFAULT_KEY, "x"))
}

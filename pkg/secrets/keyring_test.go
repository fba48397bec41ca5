package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("")

	require.NoError(t, store.StoreSecretByID("pdu0", `{"username":"admin","password":"admin"}`))
	require.NoError(t, store.StoreSecretByID("pdu1", "x"))
	require.NoError(t, store.StoreSecretByID("pdu1", "y"))

	secret, err := store.GetSecretByID("pdu1")
	require.NoError(t, err)
	assert.Equal(t, "y", secret)

	all, err := store.ListSecrets()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.RemoveSecretByID("pdu0"))
	_, err = store.GetSecretByID("pdu0")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.RemoveSecretByID("pdu0"), ErrNotFound)

	all, err = store.ListSecrets()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pdu1": "y"}, all)

	assert.Error(t, store.StoreSecretByID(keyringIndex, "x"))
}

func TestGetCredentials(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("powerctl-test")

	creds, err := GetCredentials(store, "pdu0")
	require.NoError(t, err)
	assert.Empty(t, creds)

	require.NoError(t, StoreCredentials(store, DEFAULT_KEY, Credentials{Username: "admin", Password: "default"}))
	creds, err = GetCredentials(store, "pdu0")
	require.NoError(t, err)
	assert.Equal(t, "default", creds.Password)

	require.NoError(t, StoreCredentials(store, "pdu0", Credentials{Username: "root", Password: "specific"}))
	creds, err = GetCredentials(store, "pdu0")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "root", Password: "specific"}, creds)

	require.NoError(t, store.StoreSecretByID("broken", "not json"))
	_, err = GetCredentials(store, "broken")
	assert.Error(t, err)

	creds, err = GetCredentials(nil, "pdu0")
	require.NoError(t, err)
	assert.Empty(t, creds)

	static := NewStaticStore("u", "p")
	creds, err = GetCredentials(static, "anything")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "u", Password: "p"}, creds)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	coreauth "github.com/uptome-dev/uptome/internal/auth"
	"github.com/uptome-dev/uptome/internal/auth/authtest"
)

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	_, err := Default.LoadToken("https://api.example.com")
	assert.ErrorIs(t, err, coreauth.ErrNoToken)

	require.NoError(t, Default.SaveToken("https://api.example.com", "tok"))
	token, err := Default.LoadToken("https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, Default.DeleteToken("https://api.example.com"))
	require.NoError(t, Default.DeleteToken("https://api.example.com"))

	_, err = Default.LoadToken("https://api.example.com")
	assert.ErrorIs(t, err, coreauth.ErrNoToken)
}

func TestFileStore(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := File.LoadToken("http://localhost:8000")
	assert.ErrorIs(t, err, coreauth.ErrNoToken)

	require.NoError(t, File.SaveToken("http://localhost:8000", "tok"))
	token, err := File.LoadToken("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, File.DeleteToken("http://localhost:8000"))
	_, err = File.LoadToken("http://localhost:8000")
	assert.ErrorIs(t, err, coreauth.ErrNoToken)
}

func TestStoreFor(t *testing.T) {
	store, err := StoreFor("")
	require.NoError(t, err)
	assert.Equal(t, Default, store)

	store, err = StoreFor("file")
	require.NoError(t, err)
	assert.Equal(t, File, store)

	_, err = StoreFor("vault")
	assert.Error(t, err)
}

func TestSource_FeedsResolver(t *testing.T) {
	keyring.MockInit()
	origin := "https://api.example.com"

	resolver := coreauth.NewResolver(Source(Default, origin))
	_, err := resolver.CurrentExternalID()
	assert.ErrorIs(t, err, coreauth.ErrNoToken)

	require.NoError(t, Default.SaveToken(origin, authtest.Token(t, "ext-9", coreauth.RoleUser)))
	id, err := resolver.CurrentExternalID()
	require.NoError(t, err)
	assert.Equal(t, "ext-9", id)
}

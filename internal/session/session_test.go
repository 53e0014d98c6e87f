package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/keyring"
)

func TestLoad_NoStoredTokens(t *testing.T) {
	store := keyring.NewMockStore()

	_, err := Load(store, "consumer-key")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_NoConsumerKey(t *testing.T) {
	store := keyring.NewMockStore().
		WithData(keyring.ServiceName, keyring.KeyConsumerSecret, "cs").
		WithData(keyring.ServiceName, keyring.KeyAccessToken, "at").
		WithData(keyring.ServiceName, keyring.KeyAccessSecret, "as")

	_, err := Load(store, "")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_PartialTokens(t *testing.T) {
	// Consumer secret present but no access tokens yet.
	store := keyring.NewMockStore().
		WithData(keyring.ServiceName, keyring.KeyConsumerSecret, "cs")

	_, err := Load(store, "consumer-key")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLoad_Success(t *testing.T) {
	store := keyring.NewMockStore().
		WithData(keyring.ServiceName, keyring.KeyConsumerSecret, "cs").
		WithData(keyring.ServiceName, keyring.KeyAccessToken, "at").
		WithData(keyring.ServiceName, keyring.KeyAccessSecret, "as")

	sess, err := Load(store, "consumer-key")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "consumer-key", sess.ConsumerKey)
	assert.NotNil(t, sess.HTTP)
}

func TestSaveThenLoad(t *testing.T) {
	store := keyring.NewMockStore()

	require.NoError(t, Save(store, "cs", "at", "as"))

	sess, err := Load(store, "consumer-key")
	require.NoError(t, err)
	assert.NotNil(t, sess.HTTP)
}

func TestClear(t *testing.T) {
	store := keyring.NewMockStore()
	require.NoError(t, Save(store, "cs", "at", "as"))
	require.NoError(t, Clear(store))

	_, err := Load(store, "consumer-key")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestAuthorizeURL(t *testing.T) {
	got := AuthorizeURL("my-key", "my-token")
	assert.True(t, strings.HasPrefix(got, "https://us.etrade.com/e/t/etws/authorize?"))
	assert.Contains(t, got, "key=my-key")
	assert.Contains(t, got, "token=my-token")
}

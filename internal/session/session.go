// Package session builds the OAuth1-signed HTTP client used for all
// authenticated E*TRADE calls.
//
// A nil *Session means "no credentials stored"; that is distinct from a
// session whose tokens the upstream later rejects.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/awheeler/etrade-mcp/internal/keyring"
)

// ErrNoSession is returned by Load when no access tokens are stored.
var ErrNoSession = errors.New("no stored E*TRADE session")

// Session is the process-scoped authenticated session handle. It is
// read-only after construction.
type Session struct {
	HTTP        *http.Client
	ConsumerKey string
}

// New builds a session from raw OAuth1 credentials.
func New(consumerKey, consumerSecret, accessToken, accessSecret string) *Session {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Session{
		HTTP:        httpClient,
		ConsumerKey: consumerKey,
	}
}

// Load restores a session from stored credentials. Returns ErrNoSession
// when the consumer secret or access tokens are absent, so callers can
// distinguish "never authenticated" from a real failure.
func Load(store keyring.Store, consumerKey string) (*Session, error) {
	if consumerKey == "" {
		return nil, ErrNoSession
	}

	consumerSecret, err := store.Get(keyring.ServiceName, keyring.KeyConsumerSecret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read consumer secret: %w", err)
	}

	accessToken, err := store.Get(keyring.ServiceName, keyring.KeyAccessToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}

	accessSecret, err := store.Get(keyring.ServiceName, keyring.KeyAccessSecret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read access token secret: %w", err)
	}

	return New(consumerKey, consumerSecret, accessToken, accessSecret), nil
}

// Save stores the OAuth credentials for later Load calls.
func Save(store keyring.Store, consumerSecret, accessToken, accessSecret string) error {
	if err := store.Set(keyring.ServiceName, keyring.KeyConsumerSecret, consumerSecret); err != nil {
		return fmt.Errorf("failed to store consumer secret: %w", err)
	}
	if err := store.Set(keyring.ServiceName, keyring.KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := store.Set(keyring.ServiceName, keyring.KeyAccessSecret, accessSecret); err != nil {
		return fmt.Errorf("failed to store access token secret: %w", err)
	}
	return nil
}

// Clear removes all stored credentials.
func Clear(store keyring.Store) error {
	for _, key := range []string{keyring.KeyConsumerSecret, keyring.KeyAccessToken, keyring.KeyAccessSecret} {
		if err := store.Delete(keyring.ServiceName, key); err != nil {
			return err
		}
	}
	return nil
}

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/config"
	"github.com/awheeler/etrade-mcp/internal/keyring"
)

func TestConfigureCmd_FreshSetup(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	store := keyring.NewMockStore()

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          store,
		prompt:         &scriptedPrompter{answers: []string{"new-key", "production"}},
		passwordReader: &fakePasswordReader{password: "new-secret"},
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Configuration saved")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "new-key", cfg.ConsumerKey)
	assert.Equal(t, config.EnvProduction, cfg.Environment)

	secret, err := store.Get(keyring.ServiceName, keyring.KeyConsumerSecret)
	require.NoError(t, err)
	assert.Equal(t, "new-secret", secret)
}

func TestConfigureCmd_KeepsExistingValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(configPath, &config.Config{
		ConsumerKey: "old-key",
		Environment: config.EnvSandbox,
	}))
	store := keyring.NewMockStore().WithData(keyring.ServiceName, keyring.KeyConsumerSecret, "old-secret")

	// Blank answers keep the stored key, environment and secret.
	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          store,
		prompt:         &scriptedPrompter{answers: []string{"", ""}},
		passwordReader: &fakePasswordReader{},
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "old-key", cfg.ConsumerKey)
	assert.Equal(t, config.EnvSandbox, cfg.Environment)

	secret, err := store.Get(keyring.ServiceName, keyring.KeyConsumerSecret)
	require.NoError(t, err)
	assert.Equal(t, "old-secret", secret)
}

func TestConfigureCmd_RejectsBadEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          keyring.NewMockStore(),
		prompt:         &scriptedPrompter{answers: []string{"key", "staging"}},
		passwordReader: &fakePasswordReader{},
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestConfigureCmd_RequiresConsumerKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cmd := newConfigureCmd(configureOptions{
		configPath:     configPath,
		store:          keyring.NewMockStore(),
		prompt:         &scriptedPrompter{answers: []string{""}},
		passwordReader: &fakePasswordReader{},
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer key")
}

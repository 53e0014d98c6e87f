package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/config"
	"github.com/awheeler/etrade-mcp/internal/keyring"
)

// configureOptions holds dependencies for the configure command.
// This allows for dependency injection in tests.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	prompt         prompter
	passwordReader passwordReader
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure API credentials",
		Long: `Store the E*TRADE consumer key and environment in the config file and
the consumer secret in the system keyring.

Consumer credentials come from the E*TRADE developer portal. Use the
sandbox environment until your key is approved for production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts)
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()

	keyPrompt := "Consumer key: "
	if cfg.ConsumerKey != "" {
		keyPrompt = fmt.Sprintf("Consumer key [%s]: ", cfg.ConsumerKey)
	}
	consumerKey, err := opts.prompt.ReadLine(keyPrompt)
	if err != nil {
		return fmt.Errorf("failed to read consumer key: %w", err)
	}
	if consumerKey != "" {
		cfg.ConsumerKey = consumerKey
	}
	if cfg.ConsumerKey == "" {
		return fmt.Errorf("consumer key is required")
	}

	envPrompt := fmt.Sprintf("Environment (sandbox/production) [%s]: ", cfg.Environment)
	env, err := opts.prompt.ReadLine(envPrompt)
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if env != "" {
		switch strings.ToLower(env) {
		case config.EnvSandbox, config.EnvProduction:
			cfg.Environment = strings.ToLower(env)
		default:
			return fmt.Errorf("environment must be %q or %q", config.EnvSandbox, config.EnvProduction)
		}
	}

	_, _ = fmt.Fprint(out, "Consumer secret (leave blank to keep current): ")
	secret, err := opts.passwordReader.ReadPassword()
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("failed to read consumer secret: %w", err)
	}
	if secret != "" {
		if err := opts.store.Set(keyring.ServiceName, keyring.KeyConsumerSecret, secret); err != nil {
			return fmt.Errorf("failed to store consumer secret: %w", err)
		}
	}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Configuration saved to %s.\n", opts.configPath)
	_, _ = fmt.Fprintln(out, "Run 'etrade-mcp auth' to authenticate.")
	return nil
}

func init() {
	rootCmd.AddCommand(newConfigureCmd(configureOptions{
		configPath:     config.ConfigPath(),
		store:          keyring.NewEnvStore(keyring.NewSystemStore()),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
	}))
}

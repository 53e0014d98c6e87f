package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/config"
	"github.com/awheeler/etrade-mcp/internal/keyring"
	"github.com/awheeler/etrade-mcp/internal/session"
)

var Version = "dev"

// jsonOutput controls whether output is formatted as JSON
var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:     "etrade-mcp",
	Short:   "E*TRADE trading tools",
	Long:    `Trade equities and read market data through the E*TRADE API, from the command line or as a tool server for AI assistants.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger. Stderr only; stdout belongs to
// command output and, under serve, to the wire protocol.
func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// buildClient assembles an API client from the stored config, keyring
// and OAuth session. A missing session is not an error here: the client
// is created without one and authenticated calls fail until 'auth' runs.
func buildClient(log logrus.FieldLogger) (*api.Client, *config.Config, error) {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.ConsumerKey == "" {
		return nil, nil, fmt.Errorf("no consumer key configured; run 'etrade-mcp configure' first")
	}

	store := keyring.NewEnvStore(keyring.NewSystemStore())
	sess, err := session.Load(store, cfg.ConsumerKey)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			return nil, nil, fmt.Errorf("failed to load session: %w", err)
		}
		log.Debug("no stored session, continuing unauthenticated")
		return api.NewClient(cfg.BaseURL(), cfg.ConsumerKey, nil), cfg, nil
	}

	return api.NewClient(cfg.BaseURL(), cfg.ConsumerKey, sess.HTTP), cfg, nil
}

// printResult writes v as indented JSON when --json is set, otherwise
// the formatted fallback string.
func printResult(w io.Writer, jsonMode bool, v any, formatted string) error {
	if jsonMode {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprint(w, formatted)
	return err
}

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/awheeler/etrade-mcp/internal/config"
	"github.com/awheeler/etrade-mcp/internal/keyring"
	"github.com/awheeler/etrade-mcp/internal/session"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// prompter abstracts line input for testing.
type prompter interface {
	ReadLine(prompt string) (string, error)
}

// terminalPrompter implements prompter using stdin.
type terminalPrompter struct {
	reader io.Reader
	writer io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{reader: r, writer: w}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	scanner := bufio.NewScanner(p.reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// oauthFlow injects the three-legged OAuth steps so tests can run the
// command without hitting E*TRADE.
type oauthFlow struct {
	requestToken func(consumerKey, consumerSecret string) (string, string, error)
	authorizeURL func(consumerKey, requestToken string) string
	accessToken  func(consumerKey, consumerSecret, requestToken, requestSecret, verifier string) (string, string, error)
}

func liveOAuthFlow() oauthFlow {
	return oauthFlow{
		requestToken: session.RequestToken,
		authorizeURL: session.AuthorizeURL,
		accessToken:  session.AccessToken,
	}
}

// authOptions holds dependencies for the auth command.
type authOptions struct {
	configPath     string
	store          keyring.Store
	prompt         prompter
	passwordReader passwordReader
	flow           oauthFlow
}

// newAuthCmd creates the auth command with the given options.
func newAuthCmd(opts authOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with E*TRADE",
		Long: `Run the OAuth flow against E*TRADE. Opens an authorization URL you
visit in a browser, then asks for the verification code E*TRADE shows
after you grant access. Access tokens land in the system keyring.

E*TRADE tokens expire at midnight US Eastern; re-run this command when
trading tools start failing with authentication errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, opts)
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

func runAuth(cmd *cobra.Command, opts authOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.ConsumerKey == "" {
		return fmt.Errorf("no consumer key configured; run 'etrade-mcp configure' first")
	}

	consumerSecret, err := opts.store.Get(keyring.ServiceName, keyring.KeyConsumerSecret)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to read consumer secret: %w", err)
		}
		if !opts.passwordReader.IsTerminal() {
			return fmt.Errorf("no consumer secret stored and no terminal to prompt on; run 'etrade-mcp configure'")
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "Consumer secret: ")
		consumerSecret, err = opts.passwordReader.ReadPassword()
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed to read consumer secret: %w", err)
		}
	}
	if consumerSecret == "" {
		return fmt.Errorf("consumer secret is required")
	}

	requestToken, requestSecret, err := opts.flow.requestToken(cfg.ConsumerKey, consumerSecret)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Open this URL in your browser and grant access:")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "  %s\n", opts.flow.authorizeURL(cfg.ConsumerKey, requestToken))
	_, _ = fmt.Fprintln(out)

	verifier, err := opts.prompt.ReadLine("Verification code: ")
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if verifier == "" {
		return fmt.Errorf("verification code is required")
	}

	accessToken, accessSecret, err := opts.flow.accessToken(cfg.ConsumerKey, consumerSecret, requestToken, requestSecret, verifier)
	if err != nil {
		return err
	}

	if err := session.Save(opts.store, consumerSecret, accessToken, accessSecret); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Authenticated against %s.\n", cfg.Environment)
	return nil
}

// newLogoutCmd creates the logout command with the given store.
func newLogoutCmd(store keyring.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Clear(store); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed.")
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	store := keyring.NewEnvStore(keyring.NewSystemStore())

	rootCmd.AddCommand(newAuthCmd(authOptions{
		configPath:     config.ConfigPath(),
		store:          store,
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		flow:           liveOAuthFlow(),
	}))
	rootCmd.AddCommand(newLogoutCmd(store))
}

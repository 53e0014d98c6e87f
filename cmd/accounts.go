package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/display"
)

// accountsOptions holds dependencies for the accounts command.
type accountsOptions struct {
	client   *api.Client
	jsonMode bool
}

// newAccountsCmd creates the accounts command with the given options.
func newAccountsCmd(opts *accountsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List brokerage accounts",
		Long: `List your E*TRADE brokerage accounts. Closed accounts are excluded.

The ID Key column is the account identifier used by the other commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			accounts, err := opts.client.ListAccounts(ctx)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No open accounts")
				return nil
			}

			return printResult(cmd.OutOrStdout(), opts.jsonMode, accounts, display.FormatAccounts(accounts))
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

// balanceOptions holds dependencies for the balance command.
type balanceOptions struct {
	client       *api.Client
	accountIDKey string
	jsonMode     bool
}

// newBalanceCmd creates the balance command with the given options.
func newBalanceCmd(opts *balanceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show account balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.accountIDKey == "" {
				return fmt.Errorf("account ID key is required (use --account or set account_id_key in the config)")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			balance, err := opts.client.GetBalance(ctx, opts.accountIDKey)
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), opts.jsonMode, balance, display.FormatBalance(balance))
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

func init() {
	accountsOpts := &accountsOptions{}
	accountsCmd := newAccountsCmd(accountsOpts)
	accountsCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient(newLogger(false))
		if err != nil {
			return err
		}
		accountsOpts.client = client
		accountsOpts.jsonMode = GetJSONMode()
		return nil
	}
	rootCmd.AddCommand(accountsCmd)

	balanceOpts := &balanceOptions{}
	var accountFlag string
	balanceCmd := newBalanceCmd(balanceOpts)
	balanceCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		client, cfg, err := buildClient(newLogger(false))
		if err != nil {
			return err
		}
		balanceOpts.client = client
		balanceOpts.jsonMode = GetJSONMode()
		balanceOpts.accountIDKey = accountFlag
		if balanceOpts.accountIDKey == "" {
			balanceOpts.accountIDKey = cfg.AccountIDKey
		}
		return nil
	}
	balanceCmd.Flags().StringVarP(&accountFlag, "account", "a", "", "Account ID key (uses config default if not specified)")
	rootCmd.AddCommand(balanceCmd)
}

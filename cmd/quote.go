package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/display"
)

// quoteOptions holds dependencies for the quote command.
type quoteOptions struct {
	client   *api.Client
	jsonMode bool
}

// newQuoteCmd creates the quote command with the given options.
func newQuoteCmd(opts *quoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Get a stock quote",
		Long: `Get a market quote for a symbol.

Examples:
  etrade-mcp quote AAPL
  etrade-mcp quote SPX --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			quote, err := opts.client.GetQuote(ctx, args[0])
			if err != nil {
				return err
			}

			return printResult(cmd.OutOrStdout(), opts.jsonMode, quote, display.FormatQuote(quote))
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

func init() {
	opts := &quoteOptions{}
	quoteCmd := newQuoteCmd(opts)
	quoteCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient(newLogger(false))
		if err != nil {
			return err
		}
		opts.client = client
		opts.jsonMode = GetJSONMode()
		return nil
	}
	rootCmd.AddCommand(quoteCmd)
}

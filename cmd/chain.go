package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/display"
	"github.com/awheeler/etrade-mcp/internal/options"
)

// chainOptions holds dependencies for the chain commands.
type chainOptions struct {
	service     *options.Service
	expiryDate  string
	strikeCount int
	provider    string
	jsonMode    bool
}

// newChainCmd creates the chain command with the given options.
func newChainCmd(opts *chainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain SYMBOL",
		Short: "Get an options chain",
		Long: `Get an options chain for a symbol.

With the default AUTO provider the brokerage feed is used when a session
exists and delayed web data otherwise.

Examples:
  etrade-mcp chain AAPL
  etrade-mcp chain SPX --expiry 20250919 --strikes 10
  etrade-mcp chain SPX --provider CBOE`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

// newSPXCmd creates the spx shortcut command.
func newSPXCmd(opts *chainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spx",
		Short: "Get the SPX index options chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, opts, options.IndexSymbol)
		},
	}

	cmd.SilenceUsage = true
	return cmd
}

func runChain(cmd *cobra.Command, opts *chainOptions, symbol string) error {
	identity, err := options.ParseIdentity(opts.provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	chain, err := opts.service.GetChain(ctx, symbol, opts.expiryDate, opts.strikeCount, identity)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), opts.jsonMode, chain, display.FormatChain(chain))
}

// addChainFlags registers the shared chain flags on a command.
func addChainFlags(cmd *cobra.Command, opts *chainOptions) {
	cmd.Flags().StringVarP(&opts.expiryDate, "expiry", "e", "", "Expiry date as YYYYMMDD (nearest expiry if omitted)")
	cmd.Flags().IntVarP(&opts.strikeCount, "strikes", "s", 0, "Number of strikes around the money")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Data source: AUTO, ETRADE, CBOE or NASDAQ")
}

func chainPreRun(opts *chainOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := newLogger(false)
		client, cfg, err := buildClient(log)
		if err != nil {
			return err
		}
		opts.service = options.NewService(client, log)
		opts.jsonMode = GetJSONMode()
		if opts.provider == "" {
			opts.provider = cfg.ChainProvider
		}
		if opts.strikeCount == 0 {
			opts.strikeCount = cfg.StrikeCount
		}
		return nil
	}
}

func init() {
	chainOpts := &chainOptions{}
	chainCmd := newChainCmd(chainOpts)
	chainCmd.PreRunE = chainPreRun(chainOpts)
	addChainFlags(chainCmd, chainOpts)
	rootCmd.AddCommand(chainCmd)

	spxOpts := &chainOptions{}
	spxCmd := newSPXCmd(spxOpts)
	spxCmd.PreRunE = chainPreRun(spxOpts)
	addChainFlags(spxCmd, spxOpts)
	rootCmd.AddCommand(spxCmd)
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/mcp"
	"github.com/awheeler/etrade-mcp/internal/options"
	"github.com/awheeler/etrade-mcp/internal/orders"
)

func init() {
	var verbose bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool server on stdio",
		Long: `Run the JSON-RPC tool server, reading requests from stdin and writing
responses to stdout. This is the mode AI assistants connect to.

Logs go to stderr. Without a stored session the market data tools fall
back to delayed web data and trading tools report an authentication
error; run 'etrade-mcp auth' first for full functionality.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)

			client, _, err := buildClient(log)
			if err != nil {
				return err
			}

			registry := mcp.NewRegistry(mcp.Deps{
				Client:  client,
				Options: options.NewService(client, log),
				Orders:  orders.NewManager(client, log),
				Log:     log,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mcp.Version = Version
			server := mcp.NewServer(registry, cmd.InOrStdin(), cmd.OutOrStdout(), log)
			return server.Run(ctx)
		},
	}

	serveCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	serveCmd.SilenceUsage = true

	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/awheeler/etrade-mcp/internal/display"
	"github.com/awheeler/etrade-mcp/internal/orders"
)

// orderOptions holds dependencies for the order commands.
type orderOptions struct {
	manager      *orders.Manager
	accountIDKey string
	jsonMode     bool
	prompt       prompter

	limitPrice float64
	term       string
	status     string
	yes        bool
}

func (opts *orderOptions) requireAccount() error {
	if opts.accountIDKey == "" {
		return fmt.Errorf("account ID key is required (use --account or set account_id_key in the config)")
	}
	return nil
}

// confirm asks before an irreversible action unless --yes was given.
func (opts *orderOptions) confirm(summary string) error {
	if opts.yes {
		return nil
	}
	answer, err := opts.prompt.ReadLine(fmt.Sprintf("%s — proceed? [y/N]: ", summary))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if answer != "y" && strings.ToLower(answer) != "yes" {
		return fmt.Errorf("aborted")
	}
	return nil
}

func buildOrderRequest(opts *orderOptions, action orders.Action, args []string) (orders.Request, error) {
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return orders.Request{}, fmt.Errorf("invalid quantity %q", args[1])
	}

	req := orders.Request{
		AccountIDKey: opts.accountIDKey,
		Symbol:       args[0],
		Action:       action,
		Quantity:     quantity,
		PriceType:    orders.PriceMarket,
		Term:         orders.Term(strings.ToUpper(opts.term)),
	}
	if opts.limitPrice > 0 {
		req.PriceType = orders.PriceLimit
		req.LimitPrice = opts.limitPrice
	}
	return req, nil
}

func runTrade(cmd *cobra.Command, opts *orderOptions, action orders.Action, args []string) error {
	if err := opts.requireAccount(); err != nil {
		return err
	}
	req, err := buildOrderRequest(opts, action, args)
	if err != nil {
		return err
	}

	pricing := "at market"
	if req.PriceType == orders.PriceLimit {
		pricing = fmt.Sprintf("limit %.2f", req.LimitPrice)
	}
	if err := opts.confirm(fmt.Sprintf("%s %d %s %s", action, req.Quantity, strings.ToUpper(req.Symbol), pricing)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	placed, err := opts.manager.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), opts.jsonMode, placed,
		fmt.Sprintf("Order %d placed: %s %d %s\n", placed.OrderID, placed.Action, placed.Quantity, placed.Symbol))
}

// newOrderCmd creates the order command tree with the given options.
func newOrderCmd(opts *orderOptions) *cobra.Command {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Place and manage orders",
	}

	buyCmd := &cobra.Command{
		Use:   "buy SYMBOL QUANTITY",
		Short: "Buy shares",
		Long: `Buy shares. Orders are market orders unless --limit is given.

Examples:
  etrade-mcp order buy AAPL 10
  etrade-mcp order buy AAPL 10 --limit 189.50
  etrade-mcp order buy AAPL 10 --limit 189.50 --term GOOD_TILL_CANCEL --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(cmd, opts, orders.ActionBuy, args)
		},
	}

	sellCmd := &cobra.Command{
		Use:   "sell SYMBOL QUANTITY",
		Short: "Sell shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrade(cmd, opts, orders.ActionSell, args)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireAccount(); err != nil {
				return err
			}
			status, err := orders.ParseStatus(opts.status)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			list, err := opts.manager.GetOrders(ctx, opts.accountIDKey, status)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.jsonMode, list, display.FormatOrders(list))
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status ORDER_ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireAccount(); err != nil {
				return err
			}
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order ID %q", args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			order, err := opts.manager.GetOrder(ctx, opts.accountIDKey, orderID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.jsonMode, order, display.FormatOrders([]orders.Order{*order}))
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireAccount(); err != nil {
				return err
			}
			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order ID %q", args[0])
			}
			if err := opts.confirm(fmt.Sprintf("cancel order %d", orderID)); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := opts.manager.Cancel(ctx, opts.accountIDKey, orderID)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.jsonMode, result,
				fmt.Sprintf("Cancel requested for order %d\n", result.OrderID))
		},
	}

	for _, cmd := range []*cobra.Command{buyCmd, sellCmd} {
		cmd.Flags().Float64VarP(&opts.limitPrice, "limit", "l", 0, "Limit price (market order if omitted)")
		cmd.Flags().StringVarP(&opts.term, "term", "t", string(orders.TermGoodForDay), "Order term")
		cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip confirmation prompt")
	}
	listCmd.Flags().StringVarP(&opts.status, "status", "s", "OPEN", "Status filter: OPEN, EXECUTED, CANCELLED, REJECTED, EXPIRED")
	cancelCmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip confirmation prompt")

	for _, cmd := range []*cobra.Command{buyCmd, sellCmd, listCmd, statusCmd, cancelCmd} {
		cmd.SilenceUsage = true
		orderCmd.AddCommand(cmd)
	}

	return orderCmd
}

func init() {
	opts := &orderOptions{prompt: newTerminalPrompter(os.Stdin, os.Stdout)}
	var accountFlag string

	orderCmd := newOrderCmd(opts)
	orderCmd.PersistentFlags().StringVarP(&accountFlag, "account", "a", "", "Account ID key (uses config default if not specified)")
	orderCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log := newLogger(false)
		client, cfg, err := buildClient(log)
		if err != nil {
			return err
		}
		opts.manager = orders.NewManager(client, log)
		opts.jsonMode = GetJSONMode()
		opts.accountIDKey = accountFlag
		if opts.accountIDKey == "" {
			opts.accountIDKey = cfg.AccountIDKey
		}
		return nil
	}

	rootCmd.AddCommand(orderCmd)
}

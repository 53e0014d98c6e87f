package mcp

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/display"
	"github.com/awheeler/etrade-mcp/internal/options"
	"github.com/awheeler/etrade-mcp/internal/orders"
)

// Tool is one callable exposed over the protocol.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`

	handler func(ctx context.Context, args json.RawMessage) (any, error)
}

// Registry holds the tool set in a stable listing order.
type Registry struct {
	tools []Tool
	index map[string]int
}

// Deps are the backend services tools call into.
type Deps struct {
	Client  *api.Client
	Options *options.Service
	Orders  *orders.Manager
	Log     logrus.FieldLogger
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return &r.tools[i], true
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	return r.tools
}

func (r *Registry) add(t Tool) {
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Call runs a tool. Handler failures never become protocol errors; they
// come back as a structured error payload so the caller can read them.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, bool) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	result, err := tool.handler(ctx, args)
	if err != nil {
		return map[string]string{"error": err.Error()}, true
	}
	return result, true
}

type chainResult struct {
	*options.Chain
	FormattedDisplay string `json:"formatted_display"`
}

func decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return api.Errorf(api.KindValidation, "invalid arguments: %v", err)
	}
	return nil
}

// NewRegistry wires the full tool set against the given backends.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{index: make(map[string]int)}

	r.add(Tool{
		Name:        "get_accounts",
		Description: "List brokerage accounts. Closed accounts are excluded.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			accounts, err := deps.Client.ListAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"accounts":          accounts,
				"formatted_display": display.FormatAccounts(accounts),
			}, nil
		},
	})

	r.add(Tool{
		Name:        "get_account_balance",
		Description: "Get the real-time balance for one account.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"account_id_key": {"type": "string", "description": "Account ID key from get_accounts"}
			},
			"required": ["account_id_key"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				AccountIDKey string `json:"account_id_key"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if in.AccountIDKey == "" {
				return nil, api.Errorf(api.KindValidation, "account_id_key is required")
			}
			balance, err := deps.Client.GetBalance(ctx, in.AccountIDKey)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"balance":           balance,
				"formatted_display": display.FormatBalance(balance),
			}, nil
		},
	})

	r.add(Tool{
		Name:        "get_quote",
		Description: "Get a market quote for a symbol.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"symbol": {"type": "string", "description": "Ticker symbol, e.g. AAPL"}
			},
			"required": ["symbol"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Symbol string `json:"symbol"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			quote, err := deps.Client.GetQuote(ctx, in.Symbol)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"quote":             quote,
				"formatted_display": display.FormatQuote(quote),
			}, nil
		},
	})

	chainSchema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"symbol": {"type": "string", "description": "Underlying symbol, e.g. SPX or AAPL"},
			"expiry_date": {"type": "string", "description": "Expiry as YYYYMMDD; nearest expiry when omitted"},
			"strike_count": {"type": "integer", "description": "Number of strikes around the money, default 20"},
			"provider": {"type": "string", "enum": ["AUTO", "ETRADE", "CBOE", "NASDAQ"], "description": "Data source, default AUTO"}
		},
		"required": ["symbol"]
	}`)

	type chainArgs struct {
		Symbol      string `json:"symbol"`
		ExpiryDate  string `json:"expiry_date"`
		StrikeCount int    `json:"strike_count"`
		Provider    string `json:"provider"`
	}

	fetchChain := func(ctx context.Context, in chainArgs, index bool) (any, error) {
		identity, err := options.ParseIdentity(in.Provider)
		if err != nil {
			return nil, err
		}
		var chain *options.Chain
		if index {
			chain, err = deps.Options.GetIndexChain(ctx, in.ExpiryDate, in.StrikeCount, identity)
		} else {
			chain, err = deps.Options.GetChain(ctx, in.Symbol, in.ExpiryDate, in.StrikeCount, identity)
		}
		if err != nil {
			return nil, err
		}
		return chainResult{Chain: chain, FormattedDisplay: display.FormatChain(chain)}, nil
	}

	r.add(Tool{
		Name:        "get_options_chain",
		Description: "Get an options chain for a symbol. AUTO prefers the brokerage feed and falls back to delayed web data.",
		InputSchema: chainSchema,
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in chainArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return fetchChain(ctx, in, false)
		},
	})

	r.add(Tool{
		Name:        "get_spx_options_chain",
		Description: "Get the SPX index options chain.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"expiry_date": {"type": "string", "description": "Expiry as YYYYMMDD; nearest expiry when omitted"},
				"strike_count": {"type": "integer", "description": "Number of strikes around the money, default 20"},
				"provider": {"type": "string", "enum": ["AUTO", "ETRADE", "CBOE", "NASDAQ"], "description": "Data source, default AUTO"}
			}
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in chainArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return fetchChain(ctx, in, true)
		},
	})

	r.add(Tool{
		Name:        "place_order",
		Description: "Preview and place an equity order in one step. Market orders by default; pass limit_price with price_type LIMIT.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"account_id_key": {"type": "string", "description": "Account ID key from get_accounts"},
				"symbol": {"type": "string", "description": "Ticker symbol"},
				"action": {"type": "string", "enum": ["BUY", "SELL", "BUY_TO_COVER", "SELL_SHORT"]},
				"quantity": {"type": "integer", "description": "Number of shares, must be positive"},
				"price_type": {"type": "string", "enum": ["MARKET", "LIMIT"], "description": "Default MARKET"},
				"limit_price": {"type": "number", "description": "Required for LIMIT orders"},
				"order_term": {"type": "string", "enum": ["GOOD_FOR_DAY", "GOOD_TILL_CANCEL", "IMMEDIATE_OR_CANCEL", "FILL_OR_KILL"], "description": "Default GOOD_FOR_DAY"}
			},
			"required": ["account_id_key", "symbol", "action", "quantity"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				AccountIDKey string  `json:"account_id_key"`
				Symbol       string  `json:"symbol"`
				Action       string  `json:"action"`
				Quantity     int     `json:"quantity"`
				PriceType    string  `json:"price_type"`
				LimitPrice   float64 `json:"limit_price"`
				OrderTerm    string  `json:"order_term"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			placed, err := deps.Orders.PlaceOrder(ctx, orders.Request{
				AccountIDKey: in.AccountIDKey,
				Symbol:       in.Symbol,
				Action:       orders.Action(in.Action),
				Quantity:     in.Quantity,
				PriceType:    orders.PriceType(in.PriceType),
				LimitPrice:   in.LimitPrice,
				Term:         orders.Term(in.OrderTerm),
			})
			if err != nil {
				return nil, err
			}
			return placed, nil
		},
	})

	r.add(Tool{
		Name:        "get_orders",
		Description: "List orders for an account, filtered by status (default OPEN).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"account_id_key": {"type": "string", "description": "Account ID key from get_accounts"},
				"status": {"type": "string", "enum": ["OPEN", "EXECUTED", "CANCELLED", "REJECTED", "EXPIRED", "INDIVIDUAL_FILLS"]}
			},
			"required": ["account_id_key"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				AccountIDKey string `json:"account_id_key"`
				Status       string `json:"status"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			status, err := orders.ParseStatus(in.Status)
			if err != nil {
				return nil, err
			}
			list, err := deps.Orders.GetOrders(ctx, in.AccountIDKey, status)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"orders":            list,
				"formatted_display": display.FormatOrders(list),
			}, nil
		},
	})

	r.add(Tool{
		Name:        "get_order",
		Description: "Get one order by ID.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"account_id_key": {"type": "string", "description": "Account ID key from get_accounts"},
				"order_id": {"type": "integer", "description": "Order ID from place_order or get_orders"}
			},
			"required": ["account_id_key", "order_id"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				AccountIDKey string `json:"account_id_key"`
				OrderID      int64  `json:"order_id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return deps.Orders.GetOrder(ctx, in.AccountIDKey, in.OrderID)
		},
	})

	r.add(Tool{
		Name:        "cancel_order",
		Description: "Cancel an open order. Orders already executed, cancelled, rejected or expired cannot be cancelled.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"account_id_key": {"type": "string", "description": "Account ID key from get_accounts"},
				"order_id": {"type": "integer", "description": "Order ID to cancel"}
			},
			"required": ["account_id_key", "order_id"]
		}`),
		handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				AccountIDKey string `json:"account_id_key"`
				OrderID      int64  `json:"order_id"`
			}
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return deps.Orders.Cancel(ctx, in.AccountIDKey, in.OrderID)
		},
	})

	return r
}

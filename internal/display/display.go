// Package display renders API results as fixed-width tables for humans.
// Tool responses embed these strings alongside the structured payload.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/options"
	"github.com/awheeler/etrade-mcp/internal/orders"
)

func newTable(sb *strings.Builder, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(sb)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func price(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func count(v int) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}

// FormatChain renders a straddle view: call columns on the left, strike
// in the middle, put columns on the right.
func FormatChain(chain *options.Chain) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s options", chain.Symbol)
	if chain.ExpiryDate != "" {
		fmt.Fprintf(&sb, "  exp %s", chain.ExpiryDate)
	}
	if chain.UnderlyingPrice > 0 {
		fmt.Fprintf(&sb, "  underlying %.2f", chain.UnderlyingPrice)
	}
	fmt.Fprintf(&sb, "  source %s\n", chain.Provider)

	calls := make(map[float64]options.Contract, len(chain.Calls))
	for _, c := range chain.Calls {
		calls[c.Strike] = c
	}
	puts := make(map[float64]options.Contract, len(chain.Puts))
	for _, p := range chain.Puts {
		puts[p.Strike] = p
	}

	table := newTable(&sb, []string{"C Bid", "C Ask", "C Vol", "C OI", "Strike", "P Bid", "P Ask", "P Vol", "P OI"})
	for _, strike := range chain.Strikes() {
		call, hasCall := calls[strike]
		put, hasPut := puts[strike]
		row := []string{"-", "-", "-", "-", fmt.Sprintf("%.2f", strike), "-", "-", "-", "-"}
		if hasCall {
			row[0], row[1], row[2], row[3] = price(call.Bid), price(call.Ask), count(call.Volume), count(call.OpenInterest)
		}
		if hasPut {
			row[5], row[6], row[7], row[8] = price(put.Bid), price(put.Ask), count(put.Volume), count(put.OpenInterest)
		}
		table.Append(row)
	}
	table.Render()

	return sb.String()
}

// FormatAccounts renders the account list.
func FormatAccounts(accounts []api.Account) string {
	var sb strings.Builder
	table := newTable(&sb, []string{"ID", "Name", "Type", "Status", "ID Key"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, a := range accounts {
		table.Append([]string{a.AccountID, a.AccountName, a.AccountType, a.AccountStatus, a.AccountIDKey})
	}
	table.Render()
	return sb.String()
}

// FormatQuote renders a single quote.
func FormatQuote(q *api.Quote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", q.Symbol, q.CompanyName)
	table := newTable(&sb, []string{"Last", "Chg", "Bid", "Ask", "Volume", "52w High", "52w Low"})
	table.Append([]string{
		price(q.LastTrade), fmt.Sprintf("%+.2f", q.ChangeClose),
		price(q.Bid), price(q.Ask),
		fmt.Sprintf("%d", q.TotalVolume),
		price(q.High52), price(q.Low52),
	})
	table.Render()
	return sb.String()
}

// FormatOrders renders a set of orders.
func FormatOrders(list []orders.Order) string {
	if len(list) == 0 {
		return "no orders\n"
	}
	var sb strings.Builder
	table := newTable(&sb, []string{"Order", "Status", "Symbol", "Action", "Qty", "Filled", "Type", "Limit", "Placed"})
	for _, o := range list {
		placed := "-"
		if o.PlacedTime > 0 {
			placed = time.UnixMilli(o.PlacedTime).UTC().Format("2006-01-02 15:04")
		}
		table.Append([]string{
			fmt.Sprintf("%d", o.OrderID), o.Status, o.Symbol, o.Action,
			fmt.Sprintf("%d", o.Quantity), fmt.Sprintf("%d", o.FilledQuantity),
			o.PriceType, price(o.LimitPrice), placed,
		})
	}
	table.Render()
	return sb.String()
}

// FormatBalance renders account balance highlights.
func FormatBalance(b *api.Balance) string {
	var sb strings.Builder
	table := newTable(&sb, []string{"Account Value", "Cash For Investment", "Cash Power", "Margin Power"})
	table.Append([]string{
		price(b.Computed.RealTimeValues.TotalAccountValue),
		price(b.Computed.CashAvailableForInvestment),
		price(b.Computed.CashBuyingPower),
		price(b.Computed.MarginBuyingPower),
	})
	table.Render()
	return sb.String()
}

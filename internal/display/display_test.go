package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/api"
	"github.com/awheeler/etrade-mcp/internal/options"
	"github.com/awheeler/etrade-mcp/internal/orders"
)

func TestFormatChain(t *testing.T) {
	chain := &options.Chain{
		Symbol:          "SPX",
		ExpiryDate:      "20250919",
		UnderlyingPrice: 5502.5,
		Provider:        "CBOE",
		Calls: []options.Contract{
			{Strike: 5500, Bid: 45.2, Ask: 46.0, Volume: 210, OpenInterest: 1500},
			{Strike: 5510, Bid: 40.1, Ask: 41.3, Volume: 120, OpenInterest: 900},
		},
		Puts: []options.Contract{
			{Strike: 5500, Bid: 43.0, Ask: 44.1, Volume: 180, OpenInterest: 1100},
		},
	}

	out := FormatChain(chain)

	assert.Contains(t, out, "SPX options")
	assert.Contains(t, out, "exp 20250919")
	assert.Contains(t, out, "underlying 5502.50")
	assert.Contains(t, out, "source CBOE")

	// Strikes appear in ascending order, one row each.
	first := strings.Index(out, "5500.00")
	second := strings.Index(out, "5510.00")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)

	// The 5510 row has no put leg.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "5510.00") {
			assert.Contains(t, line, "-")
		}
	}
}

func TestFormatOrders(t *testing.T) {
	out := FormatOrders([]orders.Order{
		{OrderID: 529, Status: "EXECUTED", Symbol: "AAPL", Action: "BUY", Quantity: 10, FilledQuantity: 10, PriceType: "LIMIT", LimitPrice: 189.5, PlacedTime: 1726502400000},
	})

	assert.Contains(t, out, "529")
	assert.Contains(t, out, "EXECUTED")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "189.50")
	assert.Contains(t, out, "2024-09-16")

	assert.Equal(t, "no orders\n", FormatOrders(nil))
}

func TestFormatAccounts(t *testing.T) {
	out := FormatAccounts([]api.Account{
		{AccountID: "840104290", AccountName: "Individual", AccountType: "INDIVIDUAL", AccountStatus: "ACTIVE", AccountIDKey: "abc123"},
	})

	assert.Contains(t, out, "840104290")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "ACTIVE")
}

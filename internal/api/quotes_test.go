package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/market/quote/AAPL.json", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"QuoteResponse": {
				"QuoteData": [{
					"dateTime": "14:30:00 EDT 06-20-2025",
					"Product": {"symbol": "AAPL", "securityType": "EQ"},
					"All": {
						"companyName": "APPLE INC",
						"lastTrade": 201.5,
						"bid": 201.45,
						"ask": 201.55,
						"changeClose": 1.25,
						"changeClosePct": 0.62,
						"totalVolume": 48210000,
						"high52": 237.23,
						"low52": 164.08
					}
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewUnsignedClient(server.URL, "key")
	quote, err := client.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "APPLE INC", quote.CompanyName)
	assert.Equal(t, 201.5, quote.LastTrade)
	assert.Equal(t, 201.45, quote.Bid)
	assert.Equal(t, 201.55, quote.Ask)
	assert.Equal(t, int64(48210000), quote.TotalVolume)
}

func TestGetQuote_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"QuoteResponse": {
				"Messages": {
					"Message": [{"description": "Invalid symbol: ZZZZZZ", "code": 1002}]
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewUnsignedClient(server.URL, "key")
	_, err := client.GetQuote(context.Background(), "ZZZZZZ")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestGetQuote_EmptySymbol(t *testing.T) {
	client := NewUnsignedClient("http://unused", "key")
	_, err := client.GetQuote(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

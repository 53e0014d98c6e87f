package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Quote is a normalized market quote for one symbol.
type Quote struct {
	Symbol                string  `json:"symbol"`
	SecurityType          string  `json:"securityType,omitempty"`
	CompanyName           string  `json:"companyName,omitempty"`
	LastTrade             float64 `json:"lastTrade"`
	Bid                   float64 `json:"bid"`
	Ask                   float64 `json:"ask"`
	ChangeClose           float64 `json:"changeClose"`
	ChangeClosePercentage float64 `json:"changeClosePercentage"`
	TotalVolume           int64   `json:"totalVolume"`
	High52                float64 `json:"high52,omitempty"`
	Low52                 float64 `json:"low52,omitempty"`
	QuoteTime             string  `json:"quoteTime,omitempty"`
}

// quoteResponse matches the E*TRADE quote envelope.
type quoteResponse struct {
	QuoteResponse struct {
		QuoteData []struct {
			DateTime string `json:"dateTime"`
			Product  struct {
				Symbol       string `json:"symbol"`
				SecurityType string `json:"securityType"`
			} `json:"Product"`
			All struct {
				CompanyName           string  `json:"companyName"`
				LastTrade             float64 `json:"lastTrade"`
				Bid                   float64 `json:"bid"`
				Ask                   float64 `json:"ask"`
				ChangeClose           float64 `json:"changeClose"`
				ChangeClosePercentage float64 `json:"changeClosePct"`
				TotalVolume           int64   `json:"totalVolume"`
				High52                float64 `json:"high52"`
				Low52                 float64 `json:"low52"`
			} `json:"All"`
		} `json:"QuoteData"`
		Messages struct {
			Message []struct {
				Description string `json:"description"`
				Code        int    `json:"code"`
			} `json:"Message"`
		} `json:"Messages"`
	} `json:"QuoteResponse"`
}

// GetQuote retrieves a market quote for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, Errorf(KindValidation, "symbol is required")
	}

	path := fmt.Sprintf("/v1/market/quote/%s.json", symbol)
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var quoteResp quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	data := quoteResp.QuoteResponse.QuoteData
	if len(data) == 0 {
		// E*TRADE reports unknown symbols in the Messages block with a
		// 200 status.
		msgs := quoteResp.QuoteResponse.Messages.Message
		if len(msgs) > 0 {
			return nil, Errorf(KindNotFound, "%s", msgs[0].Description)
		}
		return nil, Errorf(KindNotFound, "no quote data for %s", symbol)
	}

	q := data[0]
	return &Quote{
		Symbol:                q.Product.Symbol,
		SecurityType:          q.Product.SecurityType,
		CompanyName:           q.All.CompanyName,
		LastTrade:             q.All.LastTrade,
		Bid:                   q.All.Bid,
		Ask:                   q.All.Ask,
		ChangeClose:           q.All.ChangeClose,
		ChangeClosePercentage: q.All.ChangeClosePercentage,
		TotalVolume:           q.All.TotalVolume,
		High52:                q.All.High52,
		Low52:                 q.All.Low52,
		QuoteTime:             q.DateTime,
	}, nil
}

package options

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// EtradeProvider fetches option chains from the E*TRADE market data API.
// It requires an authenticated session on the underlying client.
type EtradeProvider struct {
	Client *api.Client
}

// NewEtradeProvider creates an E*TRADE-backed chain provider.
func NewEtradeProvider(client *api.Client) *EtradeProvider {
	return &EtradeProvider{Client: client}
}

// Name implements Provider.
func (p *EtradeProvider) Name() Identity {
	return ProviderETRADE
}

// etradeOption matches one leg in the E*TRADE chain response.
type etradeOption struct {
	Symbol            string  `json:"symbol"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"lastPrice"`
	Volume            int     `json:"volume"`
	OpenInterest      int     `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	StrikePrice       float64 `json:"strikePrice"`
}

// etradeChainResponse matches the E*TRADE option chain envelope.
type etradeChainResponse struct {
	OptionChainResponse struct {
		UnderlyingPrice float64 `json:"underlyingPrice"`
		NearPrice       float64 `json:"nearPrice"`
		OptionPair      []struct {
			StrikePrice float64       `json:"strikePrice"`
			Call        *etradeOption `json:"Call"`
			Put         *etradeOption `json:"Put"`
		} `json:"OptionPair"`
		SelectedED struct {
			Day   int `json:"day"`
			Month int `json:"month"`
			Year  int `json:"year"`
		} `json:"SelectedED"`
	} `json:"OptionChainResponse"`
}

// Fetch implements Provider.
func (p *EtradeProvider) Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	if !p.Client.HasSession() {
		return nil, api.Errorf(api.KindUnauthenticated, "E*TRADE chain provider needs an authenticated session")
	}

	params := map[string]string{
		"symbol":        symbol,
		"strikeCount":   strconv.Itoa(strikeCount),
		"includeWeekly": "true",
	}
	if expiryDate != "" {
		params["expiryDate"] = expiryDate
	}

	resp, err := p.Client.Get(ctx, "/v1/market/optionchains.json", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}

	var chainResp etradeChainResponse
	if err := json.NewDecoder(resp.Body).Decode(&chainResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return p.normalize(&chainResp, symbol, expiryDate)
}

func (p *EtradeProvider) normalize(resp *etradeChainResponse, symbol, expiryDate string) (*Chain, error) {
	body := resp.OptionChainResponse
	if len(body.OptionPair) == 0 {
		return nil, api.Errorf(api.KindUpstream, "E*TRADE returned an empty option chain for %s", symbol)
	}

	underlying := body.UnderlyingPrice
	if underlying == 0 {
		underlying = body.NearPrice
	}

	chain := &Chain{
		Symbol:          strings.ToUpper(symbol),
		ExpiryDate:      expiryDate,
		UnderlyingPrice: underlying,
		Provider:        string(ProviderETRADE),
	}

	if chain.ExpiryDate == "" && body.SelectedED.Year != 0 {
		chain.ExpiryDate = fmt.Sprintf("%04d%02d%02d",
			body.SelectedED.Year, body.SelectedED.Month, body.SelectedED.Day)
	}

	for _, pair := range body.OptionPair {
		strike := pair.StrikePrice
		if pair.Call != nil {
			chain.Calls = append(chain.Calls, normalizeEtradeLeg(pair.Call, strike))
		}
		if pair.Put != nil {
			chain.Puts = append(chain.Puts, normalizeEtradeLeg(pair.Put, strike))
		}
	}

	chain.sortContracts()
	return chain, nil
}

func normalizeEtradeLeg(leg *etradeOption, pairStrike float64) Contract {
	strike := pairStrike
	if strike == 0 {
		strike = leg.StrikePrice
	}
	return Contract{
		Symbol:       leg.Symbol,
		Strike:       strike,
		Bid:          leg.Bid,
		Ask:          leg.Ask,
		Last:         leg.LastPrice,
		Volume:       leg.Volume,
		OpenInterest: leg.OpenInterest,
		IV:           leg.ImpliedVolatility,
	}
}

package options

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// DefaultCBOEBaseURL serves Cboe's free delayed quote feed.
const DefaultCBOEBaseURL = "https://cdn.cboe.com"

// Index roots Cboe publishes under an underscore-prefixed symbol.
var cboeIndexRoots = map[string]bool{
	"SPX": true, "SPXW": true, "XSP": true, "VIX": true,
	"NDX": true, "RUT": true, "DJX": true, "OEX": true,
}

// CBOEProvider fetches option chains from Cboe's public delayed-quote
// CDN. No authentication is required, which makes it the fallback source
// when no E*TRADE session exists.
type CBOEProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewCBOEProvider creates a Cboe-backed chain provider.
func NewCBOEProvider() *CBOEProvider {
	return &CBOEProvider{
		BaseURL:    DefaultCBOEBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name implements Provider.
func (p *CBOEProvider) Name() Identity {
	return ProviderCBOE
}

// cboeResponse matches the delayed-quote feed shape. Contract details
// are encoded in the OSI option symbol rather than separate fields.
type cboeResponse struct {
	Data struct {
		Symbol       string  `json:"symbol"`
		CurrentPrice float64 `json:"current_price"`
		Close        float64 `json:"close"`
		Options      []struct {
			Option         string  `json:"option"`
			Bid            float64 `json:"bid"`
			Ask            float64 `json:"ask"`
			LastTradePrice float64 `json:"last_trade_price"`
			Volume         int     `json:"volume"`
			OpenInterest   int     `json:"open_interest"`
			IV             float64 `json:"iv"`
		} `json:"options"`
	} `json:"data"`
}

// Fetch implements Provider.
func (p *CBOEProvider) Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	symbol = strings.ToUpper(symbol)

	feedSymbol := symbol
	if cboeIndexRoots[symbol] {
		feedSymbol = "_" + symbol
	}

	url := fmt.Sprintf("%s/api/global/delayed_quotes/options/%s.json", strings.TrimSuffix(p.BaseURL, "/"), feedSymbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, api.Errorf(api.KindUnavailable, "Cboe feed unreachable: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, api.Errorf(api.KindUnsupportedSymbol, "Cboe feed does not cover %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, api.Errorf(api.KindUnavailable, "Cboe feed returned status %d", resp.StatusCode)
	}

	var feed cboeResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, api.Errorf(api.KindUnavailable, "failed to parse Cboe feed: %v", err)
	}

	return p.normalize(&feed, symbol, expiryDate, strikeCount)
}

func (p *CBOEProvider) normalize(feed *cboeResponse, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	underlying := feed.Data.CurrentPrice
	if underlying == 0 {
		underlying = feed.Data.Close
	}

	// Group decoded contracts by expiry; the feed carries every listed
	// expiration in one flat array.
	byExpiry := make(map[string][]cboeLeg)
	for _, opt := range feed.Data.Options {
		expiry, isCall, strike, ok := parseOSISymbol(opt.Option)
		if !ok || strike <= 0 {
			continue
		}
		byExpiry[expiry] = append(byExpiry[expiry], cboeLeg{
			contract: Contract{
				Symbol:       opt.Option,
				Strike:       strike,
				Bid:          opt.Bid,
				Ask:          opt.Ask,
				Last:         opt.LastTradePrice,
				Volume:       opt.Volume,
				OpenInterest: opt.OpenInterest,
				IV:           opt.IV,
			},
			isCall: isCall,
		})
	}

	if len(byExpiry) == 0 {
		return nil, api.Errorf(api.KindUnavailable, "Cboe feed returned no parseable contracts for %s", symbol)
	}

	target := expiryDate
	if target == "" {
		// Nearest listed expiration.
		for expiry := range byExpiry {
			if target == "" || expiry < target {
				target = expiry
			}
		}
	}

	legs, ok := byExpiry[target]
	if !ok {
		return nil, api.Errorf(api.KindUnavailable, "Cboe feed has no %s contracts expiring %s", symbol, target)
	}

	chain := &Chain{
		Symbol:          symbol,
		ExpiryDate:      target,
		UnderlyingPrice: underlying,
		Provider:        string(ProviderCBOE),
	}

	keep := strikeWindow(legStrikes(legs), underlying, strikeCount)
	for _, l := range legs {
		if !keep[l.contract.Strike] {
			continue
		}
		if l.isCall {
			chain.Calls = append(chain.Calls, l.contract)
		} else {
			chain.Puts = append(chain.Puts, l.contract)
		}
	}

	chain.sortContracts()
	return chain, nil
}

type cboeLeg struct {
	contract Contract
	isCall   bool
}

func legStrikes(legs []cboeLeg) []float64 {
	seen := make(map[float64]bool)
	var strikes []float64
	for _, l := range legs {
		if !seen[l.contract.Strike] {
			seen[l.contract.Strike] = true
			strikes = append(strikes, l.contract.Strike)
		}
	}
	sort.Float64s(strikes)
	return strikes
}

// strikeWindow picks up to strikeCount strikes centered on the
// underlying price. With no usable underlying it takes the middle of the
// listed range.
func strikeWindow(strikes []float64, underlying float64, strikeCount int) map[float64]bool {
	keep := make(map[float64]bool, len(strikes))
	if strikeCount <= 0 || len(strikes) <= strikeCount {
		for _, s := range strikes {
			keep[s] = true
		}
		return keep
	}

	center := len(strikes) / 2
	if underlying > 0 {
		center = sort.SearchFloat64s(strikes, underlying)
		if center >= len(strikes) {
			center = len(strikes) - 1
		}
	}

	lo := center - strikeCount/2
	if lo < 0 {
		lo = 0
	}
	hi := lo + strikeCount
	if hi > len(strikes) {
		hi = len(strikes)
		lo = hi - strikeCount
	}

	for _, s := range strikes[lo:hi] {
		keep[s] = true
	}
	return keep
}

// parseOSISymbol decodes an OSI option symbol such as
// SPX250919C05500000 into expiry (YYYYMMDD), call/put flag and strike.
func parseOSISymbol(s string) (expiry string, isCall bool, strike float64, ok bool) {
	// Root is variable length; the tail is fixed: 6-digit date, C or P,
	// 8-digit strike in thousandths.
	if len(s) < 16 {
		return "", false, 0, false
	}
	tail := s[len(s)-15:]

	date := tail[:6]
	cp := tail[6]
	raw := tail[7:]

	for _, r := range date + raw {
		if r < '0' || r > '9' {
			return "", false, 0, false
		}
	}
	if cp != 'C' && cp != 'P' {
		return "", false, 0, false
	}

	thousandths, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", false, 0, false
	}

	return "20" + date, cp == 'C', float64(thousandths) / 1000, true
}

// Package options fetches and normalizes option chains from multiple
// data sources behind a single Provider interface.
package options

import (
	"context"
	"sort"
	"strings"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// Identity names a chain data source. AUTO is a selection policy, never
// a concrete provider.
type Identity string

const (
	ProviderETRADE Identity = "ETRADE"
	ProviderCBOE   Identity = "CBOE"
	ProviderNASDAQ Identity = "NASDAQ"
	ProviderAuto   Identity = "AUTO"
)

// ParseIdentity validates a provider name from user input.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(strings.ToUpper(strings.TrimSpace(s))) {
	case ProviderETRADE:
		return ProviderETRADE, nil
	case ProviderCBOE:
		return ProviderCBOE, nil
	case ProviderNASDAQ:
		return ProviderNASDAQ, nil
	case ProviderAuto, Identity(""):
		return ProviderAuto, nil
	}
	return "", api.Errorf(api.KindValidation, "unknown provider %q (use ETRADE, CBOE, NASDAQ or AUTO)", s)
}

// Contract is one normalized option contract. Optional fields the source
// does not supply stay zero.
type Contract struct {
	Symbol       string  `json:"symbol,omitempty"`
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Last         float64 `json:"last"`
	Volume       int     `json:"volume"`
	OpenInterest int     `json:"openInterest"`
	IV           float64 `json:"iv,omitempty"`
}

// Chain is a normalized option chain for one symbol and expiry. Calls
// and puts are sorted by ascending strike; the strike sets may differ
// when the source returns a partial chain.
type Chain struct {
	Symbol          string     `json:"symbol"`
	ExpiryDate      string     `json:"expiryDate,omitempty"` // YYYYMMDD
	UnderlyingPrice float64    `json:"underlyingPrice,omitempty"`
	Calls           []Contract `json:"calls"`
	Puts            []Contract `json:"puts"`
	Provider        string     `json:"provider"`
}

// Strikes returns the sorted union of call and put strikes.
func (c *Chain) Strikes() []float64 {
	seen := make(map[float64]bool)
	var strikes []float64
	for _, ct := range c.Calls {
		if !seen[ct.Strike] {
			seen[ct.Strike] = true
			strikes = append(strikes, ct.Strike)
		}
	}
	for _, ct := range c.Puts {
		if !seen[ct.Strike] {
			seen[ct.Strike] = true
			strikes = append(strikes, ct.Strike)
		}
	}
	sort.Float64s(strikes)
	return strikes
}

// sortContracts orders both legs by ascending strike.
func (c *Chain) sortContracts() {
	sort.Slice(c.Calls, func(i, j int) bool { return c.Calls[i].Strike < c.Calls[j].Strike })
	sort.Slice(c.Puts, func(i, j int) bool { return c.Puts[i].Strike < c.Puts[j].Strike })
}

// Provider fetches and normalizes an option chain from one source.
// expiryDate is YYYYMMDD or empty for the nearest expiry; strikeCount is
// advisory and sources may return fewer contracts.
type Provider interface {
	Name() Identity
	Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error)
}

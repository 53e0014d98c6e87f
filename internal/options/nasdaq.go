package options

import (
	"context"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// NASDAQProvider is a placeholder kept so the provider set stays stable
// while a Nasdaq data source is integrated. It fails fast and is never
// used as an AUTO fallback.
type NASDAQProvider struct{}

// NewNASDAQProvider creates the placeholder provider.
func NewNASDAQProvider() *NASDAQProvider {
	return &NASDAQProvider{}
}

// Name implements Provider.
func (p *NASDAQProvider) Name() Identity {
	return ProviderNASDAQ
}

// Fetch implements Provider.
func (p *NASDAQProvider) Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	return nil, api.Errorf(api.KindNotImplemented, "NASDAQ chain provider is not wired to a data source; use ETRADE or CBOE")
}

package options

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// IndexSymbol is the fixed underlying for the index-chain shortcut.
const IndexSymbol = "SPX"

// DefaultStrikeCount bounds a chain request when the caller gives none.
const DefaultStrikeCount = 20

// Service is the stable entry point for chain requests. It validates
// input, applies defaults and delegates source selection to the Selector.
type Service struct {
	selector *Selector
}

// NewService wires the standard provider set around an API client.
func NewService(client *api.Client, log logrus.FieldLogger) *Service {
	return &Service{
		selector: &Selector{
			Primary:     NewEtradeProvider(client),
			Web:         NewCBOEProvider(),
			Placeholder: NewNASDAQProvider(),
			HasSession:  client.HasSession,
			Log:         log,
		},
	}
}

// NewServiceWithSelector is used by tests to inject provider doubles.
func NewServiceWithSelector(selector *Selector) *Service {
	return &Service{selector: selector}
}

// GetChain fetches a normalized option chain. expiryDate may be empty
// (nearest expiry); strikeCount <= 0 means DefaultStrikeCount; an empty
// identity means AUTO. strikeCount is advisory: sources may return fewer
// strikes and the service never fabricates missing ones.
func (s *Service) GetChain(ctx context.Context, symbol, expiryDate string, strikeCount int, identity Identity) (*Chain, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, api.Errorf(api.KindValidation, "symbol is required")
	}
	if err := validateExpiry(expiryDate); err != nil {
		return nil, err
	}
	if strikeCount <= 0 {
		strikeCount = DefaultStrikeCount
	}
	if identity == "" {
		identity = ProviderAuto
	}

	return s.selector.Fetch(ctx, identity, symbol, expiryDate, strikeCount)
}

// GetIndexChain is GetChain for the fixed index symbol.
func (s *Service) GetIndexChain(ctx context.Context, expiryDate string, strikeCount int, identity Identity) (*Chain, error) {
	return s.GetChain(ctx, IndexSymbol, expiryDate, strikeCount, identity)
}

// validateExpiry checks the YYYYMMDD form without pinning a calendar.
func validateExpiry(expiryDate string) error {
	if expiryDate == "" {
		return nil
	}
	if len(expiryDate) != 8 {
		return api.Errorf(api.KindValidation, "expiry date must be YYYYMMDD, got %q", expiryDate)
	}
	for _, r := range expiryDate {
		if r < '0' || r > '9' {
			return api.Errorf(api.KindValidation, "expiry date must be YYYYMMDD, got %q", expiryDate)
		}
	}
	return nil
}

package options

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// Selector resolves a provider identity into a fetch against a concrete
// provider. Resolution happens per request so a session restored mid-run
// is picked up without restart.
type Selector struct {
	Primary     Provider
	Web         Provider
	Placeholder Provider
	HasSession  func() bool
	Log         logrus.FieldLogger
}

// Fetch runs one chain request under the given identity.
//
// Explicit identities go straight to that provider and surface its error
// unchanged. AUTO tries the primary provider only when a session exists
// and falls through to the web provider at most once; the placeholder is
// never part of the AUTO path because it always fails.
func (s *Selector) Fetch(ctx context.Context, identity Identity, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	switch identity {
	case ProviderETRADE:
		return s.Primary.Fetch(ctx, symbol, expiryDate, strikeCount)
	case ProviderCBOE:
		return s.Web.Fetch(ctx, symbol, expiryDate, strikeCount)
	case ProviderNASDAQ:
		return s.Placeholder.Fetch(ctx, symbol, expiryDate, strikeCount)
	case ProviderAuto:
		return s.fetchAuto(ctx, symbol, expiryDate, strikeCount)
	}
	return nil, api.Errorf(api.KindValidation, "unknown provider %q", identity)
}

func (s *Selector) fetchAuto(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	if s.HasSession != nil && s.HasSession() {
		chain, err := s.Primary.Fetch(ctx, symbol, expiryDate, strikeCount)
		if err == nil {
			return chain, nil
		}
		if s.Log != nil {
			s.Log.WithError(err).WithField("symbol", symbol).
				Warn("primary chain provider failed, falling back to Cboe")
		}
	} else if s.Log != nil {
		s.Log.WithField("symbol", symbol).
			Debug("no session, skipping primary chain provider")
	}

	return s.Web.Fetch(ctx, symbol, expiryDate, strikeCount)
}

package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// fakeProvider counts calls and returns a canned result or error.
type fakeProvider struct {
	name  Identity
	chain *Chain
	err   error
	calls int
}

func (f *fakeProvider) Name() Identity { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.chain, nil
}

func testChain(provider Identity) *Chain {
	return &Chain{
		Symbol:   "SPX",
		Provider: string(provider),
		Calls:    []Contract{{Strike: 5500, Bid: 10, Ask: 11}},
		Puts:     []Contract{{Strike: 5500, Bid: 9, Ask: 10}},
	}
}

func newTestSelector(primary, web, placeholder *fakeProvider, hasSession bool) *Selector {
	return &Selector{
		Primary:     primary,
		Web:         web,
		Placeholder: placeholder,
		HasSession:  func() bool { return hasSession },
	}
}

func TestSelector_AutoWithoutSessionSkipsPrimary(t *testing.T) {
	primary := &fakeProvider{name: ProviderETRADE, chain: testChain(ProviderETRADE)}
	web := &fakeProvider{name: ProviderCBOE, chain: testChain(ProviderCBOE)}
	sel := newTestSelector(primary, web, &fakeProvider{name: ProviderNASDAQ}, false)

	chain, err := sel.Fetch(context.Background(), ProviderAuto, "SPX", "", 20)
	require.NoError(t, err)

	assert.Equal(t, 0, primary.calls, "primary must never be attempted without a session")
	assert.Equal(t, 1, web.calls)
	assert.Equal(t, string(ProviderCBOE), chain.Provider)
}

func TestSelector_AutoFallsBackOncePerPrimaryFailure(t *testing.T) {
	for _, kind := range []api.Kind{api.KindUnauthenticated, api.KindUpstream} {
		primary := &fakeProvider{name: ProviderETRADE, err: api.Errorf(kind, "primary down")}
		web := &fakeProvider{name: ProviderCBOE, chain: testChain(ProviderCBOE)}
		sel := newTestSelector(primary, web, &fakeProvider{name: ProviderNASDAQ}, true)

		chain, err := sel.Fetch(context.Background(), ProviderAuto, "SPX", "", 20)
		require.NoError(t, err)

		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, web.calls, "fallback must run exactly once")
		assert.Equal(t, string(ProviderCBOE), chain.Provider)
	}
}

func TestSelector_AutoSurfacesWebError(t *testing.T) {
	primary := &fakeProvider{name: ProviderETRADE, err: api.Errorf(api.KindUpstream, "primary down")}
	web := &fakeProvider{name: ProviderCBOE, err: api.Errorf(api.KindUnavailable, "feed unreachable")}
	placeholder := &fakeProvider{name: ProviderNASDAQ, chain: testChain(ProviderNASDAQ)}
	sel := newTestSelector(primary, web, placeholder, true)

	_, err := sel.Fetch(context.Background(), ProviderAuto, "SPX", "", 20)
	require.Error(t, err)

	// The surfaced error is the web provider's, and the placeholder is
	// never consulted.
	assert.Equal(t, api.KindUnavailable, api.KindOf(err))
	assert.Contains(t, err.Error(), "feed unreachable")
	assert.Equal(t, 0, placeholder.calls)
}

func TestSelector_ExplicitRequestNeverFallsBack(t *testing.T) {
	primary := &fakeProvider{name: ProviderETRADE, err: api.Errorf(api.KindUnauthenticated, "no session")}
	web := &fakeProvider{name: ProviderCBOE, chain: testChain(ProviderCBOE)}
	sel := newTestSelector(primary, web, &fakeProvider{name: ProviderNASDAQ}, false)

	_, err := sel.Fetch(context.Background(), ProviderETRADE, "SPX", "", 20)
	require.Error(t, err)

	assert.Equal(t, api.KindUnauthenticated, api.KindOf(err))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, web.calls, "explicit request must not trigger fallback")
}

func TestSelector_ExplicitPlaceholderFailsFast(t *testing.T) {
	sel := &Selector{
		Primary:     &fakeProvider{name: ProviderETRADE},
		Web:         &fakeProvider{name: ProviderCBOE},
		Placeholder: NewNASDAQProvider(),
		HasSession:  func() bool { return true },
	}

	_, err := sel.Fetch(context.Background(), ProviderNASDAQ, "SPX", "", 20)
	require.Error(t, err)
	assert.Equal(t, api.KindNotImplemented, api.KindOf(err))
}

package options

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// recordingProvider captures the arguments of its last Fetch call.
type recordingProvider struct {
	fakeProvider
	symbol      string
	expiryDate  string
	strikeCount int
}

func (r *recordingProvider) Fetch(ctx context.Context, symbol, expiryDate string, strikeCount int) (*Chain, error) {
	r.symbol = symbol
	r.expiryDate = expiryDate
	r.strikeCount = strikeCount
	return r.fakeProvider.Fetch(ctx, symbol, expiryDate, strikeCount)
}

func newRecordingService(hasSession bool) (*Service, *recordingProvider, *recordingProvider) {
	primary := &recordingProvider{fakeProvider: fakeProvider{name: ProviderETRADE, chain: testChain(ProviderETRADE)}}
	web := &recordingProvider{fakeProvider: fakeProvider{name: ProviderCBOE, chain: testChain(ProviderCBOE)}}
	svc := NewServiceWithSelector(&Selector{
		Primary:     primary,
		Web:         web,
		Placeholder: NewNASDAQProvider(),
		HasSession:  func() bool { return hasSession },
	})
	return svc, primary, web
}

func TestService_DefaultsApplied(t *testing.T) {
	svc, primary, _ := newRecordingService(true)

	chain, err := svc.GetChain(context.Background(), " spx ", "", 0, "")
	require.NoError(t, err)

	assert.Equal(t, "SPX", primary.symbol, "symbol trimmed and uppercased")
	assert.Equal(t, DefaultStrikeCount, primary.strikeCount)
	assert.Equal(t, string(ProviderETRADE), chain.Provider, "empty identity means AUTO")
}

func TestService_EmptySymbol(t *testing.T) {
	svc, _, _ := newRecordingService(true)

	_, err := svc.GetChain(context.Background(), "", "", 20, ProviderAuto)
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
}

func TestService_BadExpiry(t *testing.T) {
	svc, _, _ := newRecordingService(true)

	for _, expiry := range []string{"2025-09-19", "250919", "2025091x"} {
		_, err := svc.GetChain(context.Background(), "SPX", expiry, 20, ProviderAuto)
		require.Error(t, err, expiry)
		assert.Equal(t, api.KindValidation, api.KindOf(err), expiry)
	}
}

func TestService_GetIndexChain(t *testing.T) {
	svc, _, web := newRecordingService(false)

	chain, err := svc.GetIndexChain(context.Background(), "20250919", 10, ProviderAuto)
	require.NoError(t, err)

	assert.Equal(t, IndexSymbol, web.symbol)
	assert.Equal(t, "20250919", web.expiryDate)
	assert.Equal(t, 10, web.strikeCount)
	assert.Equal(t, string(ProviderCBOE), chain.Provider)
}

func TestParseIdentity(t *testing.T) {
	for in, want := range map[string]Identity{
		"etrade": ProviderETRADE,
		"CBOE":   ProviderCBOE,
		"nasdaq": ProviderNASDAQ,
		"auto":   ProviderAuto,
		"":       ProviderAuto,
	} {
		got, err := ParseIdentity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseIdentity("bloomberg")
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
}

func TestChain_Strikes(t *testing.T) {
	chain := &Chain{
		Calls: []Contract{{Strike: 5510}, {Strike: 5500}},
		Puts:  []Contract{{Strike: 5500}, {Strike: 5490}},
	}
	assert.Equal(t, []float64{5490, 5500, 5510}, chain.Strikes())
}

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awheeler/etrade-mcp/internal/api"
)

const accountListBody = `{"AccountListResponse": {"Accounts": {"Account": [
	{"accountId": "840104290", "accountIdKey": "abc123", "accountName": "Individual", "accountType": "INDIVIDUAL", "accountStatus": "ACTIVE"},
	{"accountId": "840104291", "accountIdKey": "def456", "accountStatus": "CLOSED"}
]}}}`

func TestAccountsCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/list.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(accountListBody))
	}))
	defer server.Close()

	cmd := newAccountsCmd(&accountsOptions{
		client: api.NewUnsignedClient(server.URL, "test-key"),
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "840104290")
	assert.Contains(t, output, "abc123")
	assert.NotContains(t, output, "def456", "closed accounts are hidden")
}

func TestAccountsCmd_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(accountListBody))
	}))
	defer server.Close()

	cmd := newAccountsCmd(&accountsOptions{
		client:   api.NewUnsignedClient(server.URL, "test-key"),
		jsonMode: true,
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var accounts []api.Account
	require.NoError(t, json.Unmarshal(out.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "abc123", accounts[0].AccountIDKey)
}

func TestAccountsCmd_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AccountListResponse": {"Accounts": {"Account": []}}}`))
	}))
	defer server.Close()

	cmd := newAccountsCmd(&accountsOptions{
		client: api.NewUnsignedClient(server.URL, "test-key"),
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No open accounts")
}

func TestBalanceCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/abc123/balance.json", r.URL.Path)
		assert.Equal(t, "BROKERAGE", r.URL.Query().Get("instType"))
		assert.Equal(t, "true", r.URL.Query().Get("realTimeNAV"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"BalanceResponse": {"accountId": "840104290", "Computed": {
			"cashAvailableForInvestment": 10000.50,
			"cashBuyingPower": 10000.50,
			"marginBuyingPower": 20001.00,
			"RealTimeValues": {"totalAccountValue": 15000.25}
		}}}`))
	}))
	defer server.Close()

	cmd := newBalanceCmd(&balanceOptions{
		client:       api.NewUnsignedClient(server.URL, "test-key"),
		accountIDKey: "abc123",
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "15000.25")
	assert.Contains(t, output, "10000.50")
}

func TestBalanceCmd_RequiresAccount(t *testing.T) {
	cmd := newBalanceCmd(&balanceOptions{
		client: api.NewUnsignedClient("http://unused", "test-key"),
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")
}

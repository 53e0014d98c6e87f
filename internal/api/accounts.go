package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Account represents one E*TRADE account from the account list.
type Account struct {
	AccountID       string `json:"accountId"`
	AccountIDKey    string `json:"accountIdKey"`
	AccountMode     string `json:"accountMode,omitempty"`
	AccountDesc     string `json:"accountDesc,omitempty"`
	AccountName     string `json:"accountName,omitempty"`
	AccountType     string `json:"accountType,omitempty"`
	AccountStatus   string `json:"accountStatus,omitempty"`
	InstitutionType string `json:"institutionType,omitempty"`
}

// accountListResponse matches the E*TRADE account list envelope.
type accountListResponse struct {
	AccountListResponse struct {
		Accounts struct {
			Account []Account `json:"Account"`
		} `json:"Accounts"`
	} `json:"AccountListResponse"`
}

// ListAccounts retrieves the account list, dropping closed accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	resp, err := c.Get(ctx, "/v1/accounts/list.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var listResp accountListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	accounts := make([]Account, 0, len(listResp.AccountListResponse.Accounts.Account))
	for _, acc := range listResp.AccountListResponse.Accounts.Account {
		if acc.AccountStatus == "CLOSED" {
			continue
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}

// Balance holds the slice of the balance response callers care about.
type Balance struct {
	AccountID          string `json:"accountId"`
	AccountDescription string `json:"accountDescription,omitempty"`
	AccountType        string `json:"accountType,omitempty"`
	Computed           struct {
		CashAvailableForInvestment float64 `json:"cashAvailableForInvestment"`
		CashBuyingPower            float64 `json:"cashBuyingPower"`
		MarginBuyingPower          float64 `json:"marginBuyingPower"`
		RealTimeValues             struct {
			TotalAccountValue float64 `json:"totalAccountValue"`
			NetMv             float64 `json:"netMv"`
		} `json:"RealTimeValues"`
	} `json:"Computed"`
}

// balanceResponse matches the E*TRADE balance envelope.
type balanceResponse struct {
	BalanceResponse Balance `json:"BalanceResponse"`
}

// GetBalance retrieves the real-time balance for one account.
func (c *Client) GetBalance(ctx context.Context, accountIDKey string) (*Balance, error) {
	path := fmt.Sprintf("/v1/accounts/%s/balance.json", accountIDKey)
	params := map[string]string{
		"instType":    "BROKERAGE",
		"realTimeNAV": "true",
	}

	resp, err := c.Get(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := CheckResponse(resp); err != nil {
		return nil, err
	}

	var balResp balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &balResp.BalanceResponse, nil
}

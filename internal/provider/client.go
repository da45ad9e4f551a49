package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

const recordDateLayout = "2006-01-02"

// Client talks to a Plaid-style aggregation API. It implements both
// TransactionSource and LinkSource. Credentials travel in the request body,
// per the provider's convention.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	clientID   string
	secret     string
}

// NewClient creates a new aggregation provider client.
func NewClient(httpClient *http.Client, baseURL, clientID, secret string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		clientID:   clientID,
		secret:     secret,
	}
}

// wire types

type syncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

type wireRecord struct {
	TransactionID   string   `json:"transaction_id"`
	AccountID       string   `json:"account_id"`
	Date            string   `json:"date"`
	Amount          float64  `json:"amount"`
	Category        []string `json:"category"`
	Name            string   `json:"name"`
	ISOCurrencyCode string   `json:"iso_currency_code"`
	Pending         bool     `json:"pending"`
}

type wireRemoved struct {
	TransactionID string `json:"transaction_id"`
}

type syncResponse struct {
	Added      []wireRecord  `json:"added"`
	Modified   []wireRecord  `json:"modified"`
	Removed    []wireRemoved `json:"removed"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type accountsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type wireAccount struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balances  struct {
		ISOCurrencyCode string `json:"iso_currency_code"`
	} `json:"balances"`
}

type accountsResponse struct {
	Accounts []wireAccount `json:"accounts"`
}

type apiError struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// SyncTransactions fetches one page of incremental changes for a credential.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error) {
	req := syncRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		Cursor:      cursor,
	}

	var resp syncResponse
	if err := c.post(ctx, "/transactions/sync", req, &resp); err != nil {
		return nil, err
	}

	page := &SyncPage{
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	}

	var err error
	if page.Added, err = decodeRecords(resp.Added); err != nil {
		return nil, err
	}
	if page.Modified, err = decodeRecords(resp.Modified); err != nil {
		return nil, err
	}
	for _, r := range resp.Removed {
		page.Removed = append(page.Removed, RemovedRecord{TransactionID: r.TransactionID})
	}

	return page, nil
}

// ExchangePublicToken trades a public token for an access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	req := exchangeRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		PublicToken: publicToken,
	}

	var resp exchangeResponse
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.ItemID, nil
}

// GetAccounts enumerates the accounts behind an access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]LinkedAccount, error) {
	req := accountsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
	}

	var resp accountsResponse
	if err := c.post(ctx, "/accounts/get", req, &resp); err != nil {
		return nil, err
	}

	accounts := make([]LinkedAccount, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		accounts = append(accounts, LinkedAccount{
			AccountID: a.AccountID,
			Name:      a.Name,
			Type:      a.Type,
			Currency:  a.Balances.ISOCurrencyCode,
		})
	}
	return accounts, nil
}

// post issues a JSON POST and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.ErrorCode != "" {
			return fmt.Errorf("provider error %s: %s", apiErr.ErrorCode, apiErr.ErrorMessage)
		}
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeRecords converts wire records, parsing dates and converting the
// decimal amount to cents (rounded half away from zero).
func decodeRecords(wire []wireRecord) ([]Record, error) {
	records := make([]Record, 0, len(wire))
	for _, w := range wire {
		date, err := time.Parse(recordDateLayout, w.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q for transaction %s: %w", w.Date, w.TransactionID, err)
		}
		records = append(records, Record{
			TransactionID: w.TransactionID,
			AccountID:     w.AccountID,
			Date:          date,
			Amount:        toCents(w.Amount),
			Categories:    w.Category,
			Description:   w.Name,
			Currency:      w.ISOCurrencyCode,
			Pending:       w.Pending,
		})
	}
	return records, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Package provider defines the interfaces for talking to external financial
// data sources: the account-aggregation provider that serves incremental
// transaction changes, and the spot-price source used to value Bitcoin
// holdings. Implementations are injected into services so the sync engine
// can be tested against in-memory fakes.
package provider

import (
	"context"
	"time"
)

// Record is one added or modified transaction from the aggregation provider.
// Amount is in cents and keeps the provider's sign convention: positive
// means money leaving a depository account, or a new charge on a credit
// account. The sign is resolved into a local category during sync.
type Record struct {
	TransactionID string
	AccountID     string
	Date          time.Time
	Amount        int64
	Categories    []string
	Description   string
	Currency      string
	Pending       bool
}

// RemovedRecord identifies a transaction the provider has deleted.
type RemovedRecord struct {
	TransactionID string
}

// SyncPage is one page of incremental changes. The three record sets are
// disjoint. NextCursor must be fed into the next call; HasMore indicates
// whether another page is available immediately.
type SyncPage struct {
	Added      []Record
	Modified   []Record
	Removed    []RemovedRecord
	NextCursor string
	HasMore    bool
}

// TransactionSource serves incremental transaction changes for one
// credential. An empty cursor requests full history.
type TransactionSource interface {
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error)
}

// LinkedAccount describes one account discovered during a link handshake.
type LinkedAccount struct {
	AccountID string
	Name      string
	Type      string
	Currency  string
}

// LinkSource performs the account-link handshake with the provider.
type LinkSource interface {
	// ExchangePublicToken trades the short-lived public token from the link
	// flow for a permanent access token and the provider's item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)

	// GetAccounts enumerates the accounts reachable through an access token.
	GetAccounts(ctx context.Context, accessToken string) ([]LinkedAccount, error)
}

// PriceSource fetches the current Bitcoin spot price in cents.
type PriceSource interface {
	BitcoinPrice(ctx context.Context) (int64, error)
}

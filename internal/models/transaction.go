package models

import "time"

// Category is the local classification of a transaction's cash-flow effect.
type Category string

const (
	CategoryIncome   Category = "income"
	CategorySpending Category = "spending"
	CategoryTransfer Category = "transfer"
)

// Transaction represents a financial transaction. Local records are the
// union of manually entered rows (no external identifier) and
// provider-sourced rows (external identifier present). For provider rows
// the pair (credential_id, external_id) is the idempotency key for
// upsert and delete during sync.
type Transaction struct {
	Base
	UserID    uint `gorm:"not null;index" json:"user_id"`
	AccountID uint `gorm:"not null;index" json:"account_id"`

	// Provider identity; nil on manually entered rows.
	CredentialID *uint   `gorm:"uniqueIndex:idx_credential_external" json:"credential_id,omitempty"`
	ExternalID   *string `gorm:"uniqueIndex:idx_credential_external" json:"external_id,omitempty"`

	Category    Category  `gorm:"not null" json:"category"`
	Amount      int64     `gorm:"type:bigint;not null" json:"amount"`
	Description string    `json:"description"`
	Currency    string    `gorm:"default:'USD'" json:"currency"`
	Date        time.Time `gorm:"not null;index" json:"date"`

	// Raw provider category label, kept for review; empty on manual rows.
	ProviderCategory string `json:"provider_category,omitempty"`
	Pending          bool   `gorm:"default:false" json:"pending"`

	// Relationships
	Account Account `gorm:"foreignKey:AccountID" json:"account"`
}

// IsSynced reports whether the row originates from the aggregation provider.
func (t *Transaction) IsSynced() bool {
	return t.ExternalID != nil
}

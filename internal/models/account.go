package models

// AccountType represents the coarse type of account, used to resolve the
// provider's amount sign convention during sync.
type AccountType string

const (
	AccountTypeDepository AccountType = "depository"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// Account represents a financial account in the system. Manually created
// accounts have no credential; linked accounts carry the credential that
// scopes them and the provider's stable account identifier.
type Account struct {
	Base
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"not null" json:"type"`
	Description string      `json:"description"`
	Balance     int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	Currency    string      `gorm:"not null;default:'USD'" json:"currency"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`

	// Link fields, set only for provider-linked accounts. ProviderAccountID
	// is unique within a credential, not globally.
	CredentialID      *uint   `gorm:"uniqueIndex:idx_credential_provider_account" json:"credential_id,omitempty"`
	ProviderAccountID *string `gorm:"uniqueIndex:idx_credential_provider_account" json:"provider_account_id,omitempty"`

	// Relationships
	Credential   *Credential   `gorm:"foreignKey:CredentialID" json:"credential,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

// IsLinked reports whether the account is backed by a provider credential.
func (a *Account) IsLinked() bool {
	return a.CredentialID != nil && a.ProviderAccountID != nil
}

package models

// Credential is an authorization grant scoping one institution's set of
// accounts at the aggregation provider. It is created once on a successful
// link handshake, never mutated, and deleted when the user disconnects
// the institution.
type Credential struct {
	Base
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	AccessToken string `gorm:"not null" json:"-"`
	ItemID      string `gorm:"uniqueIndex;not null" json:"item_id"`
	Institution string `json:"institution"`

	// Relationships
	Accounts []Account   `gorm:"foreignKey:CredentialID" json:"accounts,omitempty"`
	Cursor   *SyncCursor `gorm:"foreignKey:CredentialID" json:"cursor,omitempty"`
}

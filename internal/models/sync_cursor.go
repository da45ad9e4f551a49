package models

import "time"

// SyncCursor marks the sync position for one credential. At most one
// cursor exists per credential; it is read at the start of a sync run and
// written only after every page of that run has been applied, so a crash
// mid-run can never advance it past unpersisted changes.
type SyncCursor struct {
	Base
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	CredentialID uint      `gorm:"uniqueIndex;not null" json:"credential_id"`
	Cursor       string    `gorm:"not null" json:"cursor"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

package models

import "time"

// BitcoinHolding represents a self-custodied Bitcoin position tracked
// outside any linked institution. Quantity is stored in satoshis to avoid
// floating point drift; cost basis is in cents.
type BitcoinHolding struct {
	Base
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Satoshis   int64     `gorm:"type:bigint;not null" json:"satoshis"`
	CostBasis  int64     `gorm:"type:bigint;not null;default:0" json:"cost_basis"`
	AcquiredAt time.Time `json:"acquired_at"`
	Note       string    `json:"note"`
}

// BTC returns the holding quantity in whole bitcoin.
func (h *BitcoinHolding) BTC() float64 {
	return float64(h.Satoshis) / 1e8
}

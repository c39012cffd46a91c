package models

import "time"

// Balance caches the running total of one user's ledger.
type Balance struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"uniqueIndex;not null"`
	CurrentCent int64 `gorm:"not null;default:0"`
	UpdatedAt   time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

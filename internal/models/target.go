package models

import "time"

// TargetStatus is derived from the accumulated amount; it is never set directly by callers.
type TargetStatus string

const (
	TargetActive    TargetStatus = "active"
	TargetAchieved  TargetStatus = "achieved"
	TargetCancelled TargetStatus = "cancelled"
)

// Target is a savings goal.
type Target struct {
	ID              uint         `gorm:"primaryKey"`
	UserID          uint         `gorm:"index;not null"`
	Name            string       `gorm:"size:128;not null"`
	TargetCent      int64        `gorm:"not null;check:target_cent > 0"`
	AccumulatedCent int64        `gorm:"not null;default:0"`
	DueDate         *time.Time
	Status          TargetStatus `gorm:"size:16;index;not null;default:active"`
	CreatedAt       time.Time    `gorm:"index"`
	UpdatedAt       time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// Closed reports whether the goal no longer accepts contributions.
func (t *Target) Closed() bool {
	return t.Status == TargetAchieved || t.Status == TargetCancelled
}

// NextStatus is the status implied by an accumulated amount. Cancelled goals stay cancelled.
func (t *Target) NextStatus(accumulated int64) TargetStatus {
	if t.Status == TargetCancelled {
		return TargetCancelled
	}
	if accumulated >= t.TargetCent {
		return TargetAchieved
	}
	return TargetActive
}

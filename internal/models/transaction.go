package models

import "time"

// Direction says whether an entry adds to or subtracts from the balance.
type Direction string

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

// Sign returns +1 for income and -1 for expense.
func (d Direction) Sign() int64 {
	if d == Income {
		return 1
	}
	return -1
}

// Transaction is one append-only ledger entry.
// Amounts are stored in hundredths and are always positive; Direction carries the sign.
type Transaction struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"index;not null"`
	Direction  Direction `gorm:"size:16;index;not null"`
	AmountCent int64     `gorm:"not null;check:amount_cent > 0"`
	CategoryID uint      `gorm:"index;not null"`
	OccurredOn time.Time `gorm:"index;not null"`
	Note       string    `gorm:"size:255"`
	CreatedAt  time.Time `gorm:"index"`

	Category Category `gorm:"constraint:OnDelete:RESTRICT"`
	User     User     `gorm:"constraint:OnDelete:CASCADE"`
}

// SignedCent is the effect of the entry on the balance.
func (t *Transaction) SignedCent() int64 {
	return t.Direction.Sign() * t.AmountCent
}

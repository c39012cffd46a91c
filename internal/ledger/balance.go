package ledger

import (
	"context"
	"errors"
	"math"
	"time"

	"fintrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// balanceUnit is the view of one user's balance inside an exclusive read-modify-write unit.
type balanceUnit struct {
	tx      *gorm.DB
	userID  uint
	current int64
	now     time.Time
}

// Current is the balance as of the start of the unit plus every Apply so far.
func (u *balanceUnit) Current() int64 {
	return u.current
}

// Apply adds delta to the cached balance, creating the row on first use.
// A delta that would take the balance past the int64 range is rejected.
func (u *balanceUnit) Apply(delta int64) error {
	if overflows(u.current, delta) {
		return validationf("balance cannot move by %d from %d without overflowing", delta, u.current)
	}
	row := models.Balance{UserID: u.userID, CurrentCent: delta, UpdatedAt: u.now}
	err := u.tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"current_cent": gorm.Expr("current_cent + ?", delta),
			"updated_at":   u.now,
		}),
	}).Create(&row).Error
	if err != nil {
		return storageErr("upsert balance", err)
	}
	u.current += delta
	return nil
}

func overflows(current, delta int64) bool {
	return (delta > 0 && current > math.MaxInt64-delta) ||
		(delta < 0 && current < math.MinInt64-delta)
}

// withBalance runs fn with exclusive access to userID's balance. Same-user callers
// are serialised by the keyed lock, and the work runs in one database transaction
// that rolls back when fn fails or ctx is cancelled.
func (s *Service) withBalance(ctx context.Context, userID uint, fn func(u *balanceUnit) error) error {
	release, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return storageErr("wait for balance lock", err)
	}
	defer release()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		return fn(&balanceUnit{tx: tx, userID: userID, current: current, now: s.now().UTC()})
	})
	if err != nil && !classified(err) {
		return storageErr("commit", err)
	}
	return err
}

func readBalance(db *gorm.DB, userID uint) (int64, error) {
	var bal models.Balance
	err := db.Where("user_id = ?", userID).Take(&bal).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, storageErr("read balance", err)
	}
	return bal.CurrentCent, nil
}

// Balance returns the cached balance of a user; zero when the user has no entries yet.
func (s *Service) Balance(ctx context.Context, userID uint) (int64, error) {
	return readBalance(s.db.WithContext(ctx), userID)
}

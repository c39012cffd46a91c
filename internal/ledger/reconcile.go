package ledger

import (
	"context"

	"fintrack/internal/log"
	"fintrack/internal/models"

	"gorm.io/gorm"
)

// Drift is a user whose cached balance differs from the ledger sum.
type Drift struct {
	UserID     uint
	CachedCent int64
	LedgerCent int64
}

// LedgerSum recomputes a user's balance from their entries.
func (s *Service) LedgerSum(ctx context.Context, userID uint) (int64, error) {
	return ledgerSum(s.db.WithContext(ctx), userID)
}

func ledgerSum(db *gorm.DB, userID uint) (int64, error) {
	var sum int64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN amount_cent ELSE -amount_cent END), 0)", models.Income).
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, storageErr("sum ledger", err)
	}
	return sum, nil
}

// Reconcile compares every user's cached balance with their ledger. With fix set,
// drifted balances are rewritten to the ledger sum under the balance lock.
func (s *Service) Reconcile(ctx context.Context, fix bool) ([]Drift, error) {
	var userIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
		return nil, storageErr("list users", err)
	}

	var drifts []Drift
	for _, id := range userIDs {
		var d *Drift
		err := s.withBalance(ctx, id, func(u *balanceUnit) error {
			sum, err := ledgerSum(u.tx, id)
			if err != nil {
				return err
			}
			if sum == u.Current() {
				return nil
			}
			d = &Drift{UserID: id, CachedCent: u.Current(), LedgerCent: sum}
			if fix {
				return u.Apply(sum - u.Current())
			}
			return nil
		})
		if err != nil {
			return drifts, err
		}
		if d != nil {
			s.log.WarnContext(ctx, "balance drift",
				log.FieldOperation, log.OpReconcile,
				log.FieldUserID, d.UserID,
				"cached_cent", d.CachedCent,
				"ledger_cent", d.LedgerCent,
				"fixed", fix)
			drifts = append(drifts, *d)
		}
	}
	return drifts, nil
}

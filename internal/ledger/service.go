// Package ledger records income and expense entries and savings contributions
// while keeping each user's cached balance equal to the sum of their ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fintrack/internal/log"
	"fintrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxNoteLen = 255

// Service owns every write that touches a balance.
type Service struct {
	db    *gorm.DB
	locks *keyedLock
	log   *log.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		db:    db,
		locks: newKeyedLock(),
		log:   logger.WithComponent(log.ComponentLedger),
		now:   time.Now,
	}
}

// RecordInput describes a direct income or expense entry.
type RecordInput struct {
	UserID     uint
	Direction  models.Direction
	AmountCent int64
	CategoryID uint
	OccurredOn time.Time
	Note       string
}

func (in RecordInput) validate() error {
	if in.UserID == 0 {
		return validationf("user is required")
	}
	if in.AmountCent <= 0 {
		return validationf("amount must be positive")
	}
	if !in.Direction.Valid() {
		return validationf("direction must be %q or %q", models.Income, models.Expense)
	}
	if in.CategoryID == 0 {
		return validationf("category is required")
	}
	if in.OccurredOn.IsZero() {
		return validationf("occurred_on is required")
	}
	if utf8.RuneCountInString(in.Note) > maxNoteLen {
		return validationf("note longer than %d characters", maxNoteLen)
	}
	return nil
}

// RecordTransaction appends one entry and moves the balance by its signed amount.
// Both writes commit together or not at all.
func (s *Service) RecordTransaction(ctx context.Context, in RecordInput) (uint, error) {
	in.Note = strings.TrimSpace(in.Note)
	if err := in.validate(); err != nil {
		return 0, err
	}

	var entryID uint
	err := s.withBalance(ctx, in.UserID, func(u *balanceUnit) error {
		if err := ensureCategory(u.tx, in.CategoryID); err != nil {
			return err
		}

		entry := models.Transaction{
			UserID:     in.UserID,
			Direction:  in.Direction,
			AmountCent: in.AmountCent,
			CategoryID: in.CategoryID,
			OccurredOn: DateOnly(in.OccurredOn),
			Note:       in.Note,
		}
		if err := u.tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return storageErr("insert entry", err)
		}
		if err := u.Apply(entry.SignedCent()); err != nil {
			return err
		}
		entryID = entry.ID
		return nil
	})
	if err != nil {
		s.logFailure(ctx, log.OpRecord, in.UserID, err)
		return 0, err
	}

	s.log.InfoContext(ctx, "transaction recorded",
		log.FieldUserID, in.UserID,
		log.FieldEntryID, entryID,
		log.FieldDirection, string(in.Direction),
		log.FieldAmount, in.AmountCent)
	return entryID, nil
}

// ContributionResult is the state after a successful contribution.
type ContributionResult struct {
	EntryID            uint
	NewAccumulatedCent int64
	GoalStatus         models.TargetStatus
	BalanceCent        int64
}

// Contribute moves amount from the user's balance into one of their goals. The
// funds check runs inside the same unit as the writes, so a concurrent expense
// cannot slip in between check and debit.
func (s *Service) Contribute(ctx context.Context, userID, goalID uint, amountCent int64) (ContributionResult, error) {
	var res ContributionResult
	if amountCent <= 0 {
		return res, validationf("amount must be positive")
	}
	if goalID == 0 {
		return res, notFoundf("goal %d", goalID)
	}

	err := s.withBalance(ctx, userID, func(u *balanceUnit) error {
		var goal models.Target
		err := u.tx.Where("id = ? AND user_id = ?", goalID, userID).Take(&goal).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return notFoundf("goal %d", goalID)
		case err != nil:
			return storageErr("read goal", err)
		}
		if goal.Closed() {
			return validationf("goal %q is %s and accepts no contributions", goal.Name, goal.Status)
		}
		if u.Current() < amountCent {
			return fmt.Errorf("%w: balance %d is below contribution %d", ErrInsufficientFunds, u.Current(), amountCent)
		}

		savingsID, err := savingsCategoryID(u.tx)
		if err != nil {
			return err
		}

		if err := u.Apply(-amountCent); err != nil {
			return err
		}

		accumulated := goal.AccumulatedCent + amountCent
		status := goal.NextStatus(accumulated)
		upd := u.tx.Model(&models.Target{}).
			Where("id = ? AND user_id = ?", goal.ID, userID).
			Updates(map[string]any{
				"accumulated_cent": accumulated,
				"status":           status,
				"updated_at":       u.now,
			})
		if upd.Error != nil {
			return storageErr("update goal", upd.Error)
		}
		if upd.RowsAffected != 1 {
			return storageErr("update goal", fmt.Errorf("%d rows affected", upd.RowsAffected))
		}

		entry := models.Transaction{
			UserID:     userID,
			Direction:  models.Expense,
			AmountCent: amountCent,
			CategoryID: savingsID,
			OccurredOn: DateOnly(u.now),
			Note:       ContributionNote(goal.Name),
		}
		if err := u.tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return storageErr("insert entry", err)
		}

		res = ContributionResult{
			EntryID:            entry.ID,
			NewAccumulatedCent: accumulated,
			GoalStatus:         status,
			BalanceCent:        u.Current(),
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, log.OpContribute, userID, err, log.FieldGoalID, goalID)
		return ContributionResult{}, err
	}

	s.log.InfoContext(ctx, "goal contribution recorded",
		log.FieldUserID, userID,
		log.FieldGoalID, goalID,
		log.FieldEntryID, res.EntryID,
		log.FieldAmount, amountCent,
		"goal_status", string(res.GoalStatus))
	return res, nil
}

// ContributionNote is the ledger note written for a contribution to the named goal.
func ContributionNote(goalName string) string {
	note := "Contribution: " + goalName
	if utf8.RuneCountInString(note) > maxNoteLen {
		note = string([]rune(note)[:maxNoteLen])
	}
	return note
}

// DateOnly keeps the calendar date of t at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ensureCategory(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return storageErr("read category", err)
	}
	if n == 0 {
		return validationf("unknown category %d", id)
	}
	return nil
}

func savingsCategoryID(tx *gorm.DB) (uint, error) {
	var c models.Category
	err := tx.Where("name = ?", models.SavingsCategory).Take(&c).Error
	if err != nil {
		// the category is seeded by the migration; its absence is a broken database
		return 0, storageErr("read savings category", err)
	}
	return c.ID, nil
}

func (s *Service) logFailure(ctx context.Context, op string, userID uint, err error, extra ...any) {
	args := append([]any{log.FieldOperation, op, log.FieldUserID, userID, log.FieldError, err.Error()}, extra...)
	if errors.Is(err, ErrStorage) {
		s.log.ErrorContext(ctx, "ledger write failed", args...)
		return
	}
	s.log.InfoContext(ctx, "ledger write rejected", append(args, "kind", Kind(err))...)
}

package ledger

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"fintrack/internal/log"
	"fintrack/internal/models"

	"gorm.io/gorm/clause"
)

const maxGoalNameLen = 128

// GoalInput describes a new savings goal.
type GoalInput struct {
	UserID     uint
	Name       string
	TargetCent int64
	DueDate    *time.Time
}

// CreateGoal inserts an active goal with nothing accumulated yet.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (models.Target, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.UserID == 0:
		return models.Target{}, validationf("user is required")
	case in.Name == "":
		return models.Target{}, validationf("goal name is required")
	case utf8.RuneCountInString(in.Name) > maxGoalNameLen:
		return models.Target{}, validationf("goal name longer than %d characters", maxGoalNameLen)
	case in.TargetCent <= 0:
		return models.Target{}, validationf("target amount must be positive")
	}

	goal := models.Target{
		UserID:     in.UserID,
		Name:       in.Name,
		TargetCent: in.TargetCent,
		Status:     models.TargetActive,
	}
	if in.DueDate != nil {
		due := DateOnly(*in.DueDate)
		goal.DueDate = &due
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&goal).Error; err != nil {
		return models.Target{}, storageErr("insert goal", err)
	}

	s.log.InfoContext(ctx, "goal created",
		log.FieldOperation, log.OpCreateGoal,
		log.FieldUserID, in.UserID,
		log.FieldGoalID, goal.ID)
	return goal, nil
}

// Goals lists a user's goals, newest first.
func (s *Service) Goals(ctx context.Context, userID uint) ([]models.Target, error) {
	var goals []models.Target
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&goals).Error
	if err != nil {
		return nil, storageErr("list goals", err)
	}
	return goals, nil
}

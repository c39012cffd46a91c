package report

import (
	"context"
	"fmt"

	"fintrack/internal/models"

	"gorm.io/gorm"
)

const maxPageSize = 100

// ListQuery selects one page of a user's ledger.
type ListQuery struct {
	Filter     Filter
	Direction  models.Direction // empty for both
	CategoryID uint             // zero for all
	Page       int
	PageSize   int
}

// Page is one page of entries plus the total matching count.
type Page struct {
	Items    []models.Transaction
	Total    int64
	Page     int
	PageSize int
}

// Transactions lists entries newest first by occurred_on.
func (s *Service) Transactions(ctx context.Context, userID uint, lq ListQuery) (Page, error) {
	if lq.Page <= 0 {
		lq.Page = 1
	}
	if lq.PageSize <= 0 || lq.PageSize > maxPageSize {
		lq.PageSize = 20
	}

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = lq.Filter.Apply(base, "occurred_on")
	if lq.Direction != "" {
		base = base.Where("direction = ?", lq.Direction)
	}
	if lq.CategoryID != 0 {
		base = base.Where("category_id = ?", lq.CategoryID)
	}

	p := Page{Page: lq.Page, PageSize: lq.PageSize}
	if err := base.Session(&gorm.Session{}).Count(&p.Total).Error; err != nil {
		return Page{}, fmt.Errorf("count transactions: %w", err)
	}
	err := base.Session(&gorm.Session{}).
		Preload("Category").
		Order("occurred_on DESC, id DESC").
		Limit(lq.PageSize).
		Offset((lq.Page - 1) * lq.PageSize).
		Find(&p.Items).Error
	if err != nil {
		return Page{}, fmt.Errorf("list transactions: %w", err)
	}
	return p, nil
}

// Entries returns every entry of the user, newest first. Used by exports.
func (s *Service) Entries(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("occurred_on DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	return entries, nil
}

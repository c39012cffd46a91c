// Package report answers read-only questions about a user's ledger. Reads see
// committed rows only and never take the balance lock.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Options struct {
	HistoryLimit     int
	HistoricalMonths int
}

type Service struct {
	db   *gorm.DB
	log  *log.Logger
	opts Options
}

func NewService(db *gorm.DB, logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 6
	}
	if opts.HistoricalMonths <= 0 {
		opts.HistoricalMonths = 6
	}
	return &Service{db: db, log: logger.WithComponent(log.ComponentReport), opts: opts}
}

// Summary holds filtered totals next to the unfiltered cached balance.
type Summary struct {
	Period      string
	IncomeCent  int64
	ExpenseCent int64
	NetCent     int64
	BalanceCent int64
}

type totals struct {
	IncomeCent  int64
	ExpenseCent int64
}

func (s *Service) totals(ctx context.Context, userID uint, f Filter) (totals, error) {
	var t totals
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN amount_cent ELSE 0 END), 0) AS income_cent, "+
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount_cent ELSE 0 END), 0) AS expense_cent",
			models.Income, models.Expense).
		Where("user_id = ?", userID)
	if err := f.Apply(q, "occurred_on").Scan(&t).Error; err != nil {
		return t, fmt.Errorf("sum totals: %w", err)
	}
	return t, nil
}

func (s *Service) Summary(ctx context.Context, userID uint, f Filter) (Summary, error) {
	t, err := s.totals(ctx, userID, f)
	if err != nil {
		return Summary{}, err
	}

	var bal models.Balance
	err = s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&bal).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Summary{}, fmt.Errorf("read balance: %w", err)
	}

	return Summary{
		Period:      f.Label(),
		IncomeCent:  t.IncomeCent,
		ExpenseCent: t.ExpenseCent,
		NetCent:     t.IncomeCent - t.ExpenseCent,
		BalanceCent: bal.CurrentCent,
	}, nil
}

// History returns the latest entries in the period, most recently created first.
func (s *Service) History(ctx context.Context, userID uint, f Filter) ([]models.Transaction, error) {
	var entries []models.Transaction
	q := s.db.WithContext(ctx).Preload("Category").Where("user_id = ?", userID)
	err := f.Apply(q, "occurred_on").
		Order("created_at DESC, id DESC").
		Limit(s.opts.HistoryLimit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

type monthRow struct {
	Month       string
	IncomeCent  int64
	ExpenseCent int64
}

type categoryRow struct {
	Name       string
	AmountCent int64
}

// MonthPoint is one bar of the historical chart.
type MonthPoint struct {
	Month       string // YYYY-MM
	Label       string // Jan
	IncomeCent  int64
	ExpenseCent int64
}

// Historical returns the most recent months that have entries, oldest first.
func (s *Service) Historical(ctx context.Context, userID uint) ([]MonthPoint, error) {
	var rows []monthRow
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("strftime('%Y-%m', occurred_on) AS month, "+
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount_cent ELSE 0 END), 0) AS income_cent, "+
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount_cent ELSE 0 END), 0) AS expense_cent",
			models.Income, models.Expense).
		Where("user_id = ?", userID).
		Group("month").
		Order("month DESC").
		Limit(s.opts.HistoricalMonths).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum months: %w", err)
	}

	points := make([]MonthPoint, len(rows))
	for i, r := range rows {
		m, err := time.Parse("2006-01", r.Month)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", r.Month, err)
		}
		points[len(rows)-1-i] = MonthPoint{
			Month:       r.Month,
			Label:       m.Format("Jan"),
			IncomeCent:  r.IncomeCent,
			ExpenseCent: r.ExpenseCent,
		}
	}
	return points, nil
}

// CategoryShare is a category's part of the period's expenses.
type CategoryShare struct {
	Name       string
	AmountCent int64
	Percentage decimal.Decimal
}

type Analysis struct {
	Summary        Summary
	TopExpense     *CategoryShare
	Recommendation *models.Method
}

// Analysis adds the largest expense category and, for a surplus, a method recommendation.
func (s *Service) Analysis(ctx context.Context, userID uint, f Filter) (Analysis, error) {
	sum, err := s.Summary(ctx, userID, f)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{Summary: sum}

	if sum.ExpenseCent > 0 {
		var top []categoryRow
		q := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Select("categories.name AS name, SUM(transactions.amount_cent) AS amount_cent").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("transactions.user_id = ? AND transactions.direction = ?", userID, models.Expense)
		err := f.Apply(q, "transactions.occurred_on").
			Group("categories.name").
			Order("amount_cent DESC, name ASC").
			Limit(1).
			Scan(&top).Error
		if err != nil {
			return Analysis{}, fmt.Errorf("top expense: %w", err)
		}
		if len(top) == 1 {
			a.TopExpense = &CategoryShare{
				Name:       top[0].Name,
				AmountCent: top[0].AmountCent,
				Percentage: Percentage(top[0].AmountCent, sum.ExpenseCent),
			}
		}
	}

	if sum.NetCent > 0 {
		var m models.Method
		err := s.db.WithContext(ctx).Where("name = ?", models.PayYourselfFirst).Take(&m).Error
		switch {
		case err == nil:
			a.Recommendation = &m
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return Analysis{}, fmt.Errorf("read method: %w", err)
		default:
			s.log.WarnContext(ctx, "recommended method missing", "method", models.PayYourselfFirst)
		}
	}
	return a, nil
}

// Percentage is part/total*100 rounded to two places; zero when total is zero.
func Percentage(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(2)
}

package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// cashflowService aggregates income and spending over time.
type cashflowService struct {
	db *gorm.DB
}

// NewCashflowService creates a new CashflowServicer.
func NewCashflowService(db *gorm.DB) CashflowServicer {
	return &cashflowService{db: db}
}

// GetCashflow aggregates the user's transactions into per-month income and
// spending totals over [from, to]. Transfers move money between the user's
// own accounts and are excluded. Amounts are summed as absolute values so
// that provider sign conventions (already resolved into categories during
// sync) cannot skew the totals.
func (s *cashflowService) GetCashflow(userID uint, from, to time.Time) (*CashflowReport, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "'to' date must not be before 'from' date")
	}

	type row struct {
		Date     time.Time
		Category models.Category
		Amount   int64
	}

	var rows []row
	if err := s.db.Model(&models.Transaction{}).
		Select("date, category, amount").
		Where("user_id = ? AND date >= ? AND date <= ? AND category <> ?",
			userID, from, to, models.CategoryTransfer).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Aggregation happens here rather than in SQL so the month bucketing
	// works identically on Postgres and the SQLite test databases.
	byMonth := make(map[string]*MonthlyCashflow)
	for _, r := range rows {
		key := r.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthlyCashflow{Month: key}
			byMonth[key] = m
		}

		amount := r.Amount
		if amount < 0 {
			amount = -amount
		}

		switch r.Category {
		case models.CategoryIncome:
			m.Income += amount
		case models.CategorySpending:
			m.Spending += amount
		}
	}

	report := &CashflowReport{From: from, To: to}
	for _, m := range byMonth {
		m.Net = m.Income - m.Spending
		report.Months = append(report.Months, *m)
		report.TotalIncome += m.Income
		report.TotalSpending += m.Spending
	}
	report.TotalNet = report.TotalIncome - report.TotalSpending

	sort.Slice(report.Months, func(i, j int) bool {
		return report.Months[i].Month < report.Months[j].Month
	})

	return report, nil
}

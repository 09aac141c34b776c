package repository

import (
	"context"
	"fmt"
	"time"

	"invoicedesk/internal/billing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Period granularities accepted by RevenueByPeriod.
const (
	GroupByDay     = "day"
	GroupByWeek    = "week"
	GroupByMonth   = "month"
	GroupByQuarter = "quarter"
	GroupByYear    = "year"
)

type RevenueDataRow struct {
	Period       string          `json:"period"`
	Invoices     int64           `json:"invoices"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

type RevenueRepository interface {
	RevenueByPeriod(ctx context.Context, ownerID uuid.UUID, groupBy string, from, to time.Time) ([]RevenueDataRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// RevenueByPeriod sums invoices dated in [from, to] per period, oldest period
// first. Buckets are computed here rather than in SQL so every driver groups
// the same way.
func (r *revenueRepository) RevenueByPeriod(ctx context.Context, ownerID uuid.UUID, groupBy string, from, to time.Time) ([]RevenueDataRow, error) {
	var rows []struct {
		Date   time.Time
		Total  decimal.Decimal
		Tax    decimal.Decimal
		Status string
	}
	if err := GetDB(ctx, r.db).Table("invoices").
		Select("date, total, tax, status").
		Where("owner_id = ? AND date >= ? AND date <= ?", ownerID, from, to).
		Order("date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}

	var result []RevenueDataRow
	index := make(map[string]int)
	for _, row := range rows {
		period := PeriodStart(row.Date, groupBy).Format("2006-01-02")
		i, ok := index[period]
		if !ok {
			i = len(result)
			index[period] = i
			result = append(result, RevenueDataRow{Period: period})
		}
		result[i].Invoices++
		result[i].TotalRevenue = result[i].TotalRevenue.Add(row.Total)
		result[i].TotalTax = result[i].TotalTax.Add(row.Tax)
		if row.Status == string(billing.StatusPaid) {
			result[i].TotalPaid = result[i].TotalPaid.Add(row.Total)
		}
	}
	return result, nil
}

// PeriodStart truncates t in UTC to the first day of its period. Weeks start
// on Monday. Unknown granularities fall back to month.
func PeriodStart(t time.Time, groupBy string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch groupBy {
	case GroupByDay:
		return day
	case GroupByWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GroupByQuarter:
		month := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	case GroupByYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

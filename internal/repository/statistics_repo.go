package repository

import (
	"context"
	"fmt"
	"sort"

	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsRepository runs the aggregate queries behind the dashboard.
type StatisticsRepository interface {
	InventorySummary(ctx context.Context, ownerID uuid.UUID) (count int64, value decimal.Decimal, err error)
	InvoiceSummary(ctx context.Context, ownerID uuid.UUID) (count int64, revenue decimal.Decimal, err error)
	LowStock(ctx context.Context, ownerID uuid.UUID, threshold decimal.Decimal) ([]model.LowStockItem, error)
	RecentInvoices(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.InvoiceSummary, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// Amounts are stored exactly and summed here, so the same totals come back
// from every driver.
func (r *statisticsRepository) InventorySummary(ctx context.Context, ownerID uuid.UUID) (int64, decimal.Decimal, error) {
	var rows []struct {
		Quantity     decimal.Decimal
		PricePerUnit decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.InventoryItem{}).
		Select("quantity, price_per_unit").
		Where("owner_id = ?", ownerID).
		Scan(&rows).Error; err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to summarise inventory: %w", err)
	}
	value := decimal.Zero
	for _, row := range rows {
		value = value.Add(row.Quantity.Mul(row.PricePerUnit))
	}
	return int64(len(rows)), value, nil
}

func (r *statisticsRepository) InvoiceSummary(ctx context.Context, ownerID uuid.UUID) (int64, decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("owner_id = ?", ownerID).
		Pluck("total", &totals).Error; err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to summarise invoices: %w", err)
	}
	return int64(len(totals)), decimal.Sum(decimal.Zero, totals...), nil
}

// LowStock returns items at or below threshold, lowest stock first.
func (r *statisticsRepository) LowStock(ctx context.Context, ownerID uuid.UUID, threshold decimal.Decimal) ([]model.LowStockItem, error) {
	var rows []model.LowStockItem
	if err := GetDB(ctx, r.db).Model(&model.InventoryItem{}).
		Select("id, name, quantity, unit").
		Where("owner_id = ?", ownerID).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	items := make([]model.LowStockItem, 0, len(rows))
	for _, row := range rows {
		if row.Quantity.LessThanOrEqual(threshold) {
			items = append(items, row)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if c := items[i].Quantity.Cmp(items[j].Quantity); c != 0 {
			return c < 0
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r *statisticsRepository) RecentInvoices(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.InvoiceSummary, error) {
	var invoices []model.InvoiceSummary
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Select("id, invoice_number, buyer_name, total, status").
		Where("owner_id = ?", ownerID).
		Order("date desc").Order("invoice_number desc").
		Limit(limit).
		Scan(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent invoices: %w", err)
	}
	return invoices, nil
}

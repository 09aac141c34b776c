package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats summarises one user's inventory and invoices.
type DashboardStats struct {
	TotalProducts  int64            `json:"total_products"`
	InventoryValue decimal.Decimal  `json:"inventory_value"`
	TotalInvoices  int64            `json:"total_invoices"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	LowStockItems  []LowStockItem   `json:"low_stock_items"`
	RecentInvoices []InvoiceSummary `json:"recent_invoices"`
}

type LowStockItem struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

type InvoiceSummary struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	BuyerName     string          `json:"buyer_name"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
}

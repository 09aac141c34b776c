package service

import (
	"context"
	"fmt"

	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const recentInvoiceCount = 5

// Workspace is everything the application shows for one user.
type Workspace struct {
	Inventory []InventoryResponse  `json:"inventory"`
	Invoices  []InvoiceResponse    `json:"invoices"`
	Profile   ProfileResponse      `json:"profile"`
	Stats     model.DashboardStats `json:"stats"`
}

type StatisticsService interface {
	Dashboard(ctx context.Context, ownerID uuid.UUID) (model.DashboardStats, error)
	// Refresh reloads inventory, invoices, profile and dashboard concurrently.
	Refresh(ctx context.Context, ownerID uuid.UUID) (*Workspace, error)
}

type statisticsService struct {
	statsRepo         repository.StatisticsRepository
	inventory         InventoryService
	invoices          InvoiceService
	profiles          ProfileService
	lowStockThreshold decimal.Decimal
}

func NewStatisticsService(
	statsRepo repository.StatisticsRepository,
	inventory InventoryService,
	invoices InvoiceService,
	profiles ProfileService,
	lowStockThreshold int,
) StatisticsService {
	return &statisticsService{
		statsRepo:         statsRepo,
		inventory:         inventory,
		invoices:          invoices,
		profiles:          profiles,
		lowStockThreshold: decimal.NewFromInt(int64(lowStockThreshold)),
	}
}

func (s *statisticsService) Dashboard(ctx context.Context, ownerID uuid.UUID) (model.DashboardStats, error) {
	if err := requireOwner(ownerID); err != nil {
		return model.DashboardStats{}, err
	}

	var stats model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, value, err := s.statsRepo.InventorySummary(gctx, ownerID)
		stats.TotalProducts, stats.InventoryValue = count, value
		return err
	})
	g.Go(func() error {
		count, revenue, err := s.statsRepo.InvoiceSummary(gctx, ownerID)
		stats.TotalInvoices, stats.TotalRevenue = count, revenue
		return err
	})
	g.Go(func() error {
		items, err := s.statsRepo.LowStock(gctx, ownerID, s.lowStockThreshold)
		stats.LowStockItems = items
		return err
	})
	g.Go(func() error {
		recent, err := s.statsRepo.RecentInvoices(gctx, ownerID, recentInvoiceCount)
		stats.RecentInvoices = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return model.DashboardStats{}, err
	}

	if stats.LowStockItems == nil {
		stats.LowStockItems = []model.LowStockItem{}
	}
	if stats.RecentInvoices == nil {
		stats.RecentInvoices = []model.InvoiceSummary{}
	}
	return stats, nil
}

func (s *statisticsService) Refresh(ctx context.Context, ownerID uuid.UUID) (*Workspace, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	var ws Workspace
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.inventory.List(gctx, ownerID)
		ws.Inventory = items
		return err
	})
	g.Go(func() error {
		invoices, _, err := s.invoices.List(gctx, ownerID, "", 1, 0)
		ws.Invoices = invoices
		return err
	})
	g.Go(func() error {
		profile, err := s.profiles.Get(gctx, ownerID)
		ws.Profile = profile
		return err
	})
	g.Go(func() error {
		stats, err := s.Dashboard(gctx, ownerID)
		ws.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to refresh workspace: %w", err)
	}
	return &ws, nil
}

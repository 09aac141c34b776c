package service

import (
	"context"
	"fmt"
	"time"

	"invoicedesk/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type RevenueFilter struct {
	GroupBy string // day, week, month, quarter, year
	From    time.Time
	To      time.Time
}

type RevenueReport struct {
	GroupBy string                      `json:"group_by"`
	From    time.Time                   `json:"from"`
	To      time.Time                   `json:"to"`
	Periods []repository.RevenueDataRow `json:"periods"`
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, ownerID uuid.UUID, filter RevenueFilter) (*RevenueReport, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
}

func NewRevenueService(revenueRepo repository.RevenueRepository) RevenueService {
	return &revenueService{revenueRepo: revenueRepo}
}

// --- Implementation ---

func (s *revenueService) GetRevenueStatistics(ctx context.Context, ownerID uuid.UUID, filter RevenueFilter) (*RevenueReport, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	// Validate group_by
	groupBy := filter.GroupBy
	switch groupBy {
	case repository.GroupByDay, repository.GroupByWeek, repository.GroupByMonth, repository.GroupByQuarter, repository.GroupByYear:
		// valid
	case "":
		groupBy = repository.GroupByMonth
	default:
		return nil, fmt.Errorf("%w: group_by must be day, week, month, quarter or year", ErrValidation)
	}
	if filter.To.Before(filter.From) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}

	rows, err := s.revenueRepo.RevenueByPeriod(ctx, ownerID, groupBy, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.RevenueDataRow{}
	}

	return &RevenueReport{GroupBy: groupBy, From: filter.From, To: filter.To, Periods: rows}, nil
}

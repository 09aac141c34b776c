package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/events"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DTOs
type CreateInventoryRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity" swaggertype:"string" example:"10"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" swaggertype:"string" example:"5.00"`
	Unit         string          `json:"unit" example:"pcs"`
}

// UpdateInventoryRequest changes only the fields that are present.
type UpdateInventoryRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Quantity     *decimal.Decimal `json:"quantity" swaggertype:"string"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit" swaggertype:"string"`
	Unit         *string          `json:"unit"`
}

type InventoryResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Quantity     decimal.Decimal `json:"quantity" swaggertype:"string"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" swaggertype:"string"`
	Unit         string          `json:"unit"`
	CreatedAt    time.Time       `json:"created_at"`
}

type StockMovementResponse struct {
	ID              string          `json:"id"`
	MovementType    string          `json:"movement_type"`
	QuantityChanged decimal.Decimal `json:"quantity_changed" swaggertype:"string"`
	StockBefore     decimal.Decimal `json:"stock_before" swaggertype:"string"`
	StockAfter      decimal.Decimal `json:"stock_after" swaggertype:"string"`
	InvoiceID       string          `json:"invoice_id,omitempty"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type InventoryService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]InventoryResponse, error)
	Search(ctx context.Context, ownerID uuid.UUID, query string) ([]InventoryResponse, error)
	Create(ctx context.Context, ownerID uuid.UUID, req CreateInventoryRequest) (InventoryResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateInventoryRequest) (InventoryResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Movements(ctx context.Context, ownerID, id uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	publisher     events.Publisher
	logger        *zap.Logger
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		publisher:     publisher,
		logger:        logger.Named("inventory"),
	}
}

func toInventoryResponse(it billing.InventoryItem) InventoryResponse {
	return InventoryResponse{
		ID:           it.ID.String(),
		Name:         it.Name,
		Description:  it.Description,
		Quantity:     it.Quantity,
		PricePerUnit: it.PricePerUnit,
		Unit:         it.Unit,
		CreatedAt:    it.CreatedAt,
	}
}

func checkStockFields(quantity, price *decimal.Decimal) error {
	if quantity != nil && quantity.IsNegative() {
		return fmt.Errorf("%w: quantity cannot be negative", billing.ErrInvalidAmount)
	}
	if price != nil && price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", billing.ErrInvalidAmount)
	}
	return nil
}

func (r UpdateInventoryRequest) patch() repository.InventoryPatch {
	p := repository.InventoryPatch{
		Description:  r.Description,
		Quantity:     r.Quantity,
		PricePerUnit: r.PricePerUnit,
		Unit:         r.Unit,
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		p.Name = &name
	}
	return p
}

func (s *inventoryService) List(ctx context.Context, ownerID uuid.UUID) ([]InventoryResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	items, err := s.inventoryRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return toInventoryResponses(items), nil
}

// Search filters the inventory by a case-insensitive name fragment.
func (s *inventoryService) Search(ctx context.Context, ownerID uuid.UUID, query string) ([]InventoryResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	items, err := s.inventoryRepo.Search(ctx, ownerID, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search inventory: %w", err)
	}
	return toInventoryResponses(items), nil
}

func toInventoryResponses(items []billing.InventoryItem) []InventoryResponse {
	res := make([]InventoryResponse, 0, len(items))
	for _, it := range items {
		res = append(res, toInventoryResponse(it))
	}
	return res
}

func (s *inventoryService) Create(ctx context.Context, ownerID uuid.UUID, req CreateInventoryRequest) (InventoryResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return InventoryResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return InventoryResponse{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := checkStockFields(&req.Quantity, &req.PricePerUnit); err != nil {
		return InventoryResponse{}, err
	}

	item := billing.InventoryItem{
		Name:         name,
		Description:  req.Description,
		Quantity:     req.Quantity,
		PricePerUnit: req.PricePerUnit,
		Unit:         req.Unit,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.inventoryRepo.Create(txCtx, ownerID, &item); err != nil {
			return fmt.Errorf("failed to create inventory item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, ownerID, model.ActionCreateInventory, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return InventoryResponse{}, err
	}

	res := toInventoryResponse(item)
	publish(ctx, s.publisher, s.logger, events.New(events.InventoryCreated, ownerID, res))
	return res, nil
}

func (s *inventoryService) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateInventoryRequest) (InventoryResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return InventoryResponse{}, err
	}
	patch := req.patch()
	if patch.Empty() {
		return InventoryResponse{}, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if patch.Name != nil && *patch.Name == "" {
		return InventoryResponse{}, fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if err := checkStockFields(patch.Quantity, patch.PricePerUnit); err != nil {
		return InventoryResponse{}, err
	}

	var updated billing.InventoryItem
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.inventoryRepo.Update(txCtx, ownerID, id, patch)
		if err != nil {
			return fmt.Errorf("failed to update inventory item: %w", err)
		}
		updated = item
		return writeAudit(txCtx, s.auditRepo, ownerID, model.ActionUpdateInventory, item.ID.String(), item.Name, req)
	})
	if err != nil {
		return InventoryResponse{}, err
	}

	res := toInventoryResponse(updated)
	publish(ctx, s.publisher, s.logger, events.New(events.InventoryUpdated, ownerID, res))
	return res, nil
}

func (s *inventoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.inventoryRepo.FindByID(txCtx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.inventoryRepo.Delete(txCtx, ownerID, id); err != nil {
			return fmt.Errorf("failed to delete inventory item: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, ownerID, model.ActionDeleteInventory, id.String(), item.Name, map[string]bool{"deleted": true})
	})
	if err != nil {
		return err
	}

	publish(ctx, s.publisher, s.logger, events.New(events.InventoryDeleted, ownerID, map[string]string{"id": id.String()}))
	return nil
}

func (s *inventoryService) Movements(ctx context.Context, ownerID, id uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if _, err := s.inventoryRepo.FindByID(ctx, ownerID, id); err != nil {
		return nil, 0, err
	}

	movements, total, err := s.inventoryRepo.ListMovements(ctx, ownerID, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}

	res := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		row := StockMovementResponse{
			ID:              m.ID.String(),
			MovementType:    m.MovementType,
			QuantityChanged: m.QuantityChanged.Decimal,
			StockBefore:     m.StockBefore.Decimal,
			StockAfter:      m.StockAfter.Decimal,
			Note:            m.Note,
			CreatedAt:       m.CreatedAt,
		}
		if m.InvoiceID != nil {
			row.InvoiceID = m.InvoiceID.String()
		}
		res = append(res, row)
	}
	return res, total, nil
}

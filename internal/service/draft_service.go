package service

import (
	"context"
	"errors"
	"fmt"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/draftstore"
	"invoicedesk/internal/events"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DTOs
type AddDraftItemRequest struct {
	InventoryItemID string          `json:"inventory_item_id" binding:"required,uuid"`
	Quantity        decimal.Decimal `json:"quantity" swaggertype:"string" example:"2"`
}

type UpdateDraftItemRequest struct {
	Quantity decimal.Decimal `json:"quantity" swaggertype:"string" example:"3"`
}

type BuyerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	GSTIN   string `json:"gstin"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

// AdjustmentsRequest sets the discount and tax percent that are present.
type AdjustmentsRequest struct {
	Discount   *decimal.Decimal `json:"discount" swaggertype:"string"`
	TaxPercent *decimal.Decimal `json:"tax_percent" swaggertype:"string"`
}

type DraftResponse struct {
	billing.Draft
	Totals billing.Totals `json:"totals"`
	// Availability is what can still be staged per inventory item id.
	Availability map[string]decimal.Decimal `json:"availability"`
}

type CommitResponse struct {
	Invoice     InvoiceResponse           `json:"invoice"`
	Adjustments []billing.StockAdjustment `json:"adjustments"`
}

type DraftService interface {
	Get(ctx context.Context, ownerID uuid.UUID) (*DraftResponse, error)
	AddItem(ctx context.Context, ownerID uuid.UUID, req AddDraftItemRequest) (*DraftResponse, error)
	UpdateItem(ctx context.Context, ownerID uuid.UUID, index int, req UpdateDraftItemRequest) (*DraftResponse, error)
	RemoveItem(ctx context.Context, ownerID uuid.UUID, index int) (*DraftResponse, error)
	SetBuyer(ctx context.Context, ownerID uuid.UUID, req BuyerRequest) (*DraftResponse, error)
	SetNotes(ctx context.Context, ownerID uuid.UUID, req NotesRequest) (*DraftResponse, error)
	SetAdjustments(ctx context.Context, ownerID uuid.UUID, req AdjustmentsRequest) (*DraftResponse, error)
	Discard(ctx context.Context, ownerID uuid.UUID) error
	// Commit may return a response together with a *billing.CommitError when
	// the invoice was stored but stock was not fully adjusted.
	Commit(ctx context.Context, ownerID uuid.UUID) (*CommitResponse, error)
}

type draftService struct {
	store         draftstore.Store
	inventoryRepo repository.InventoryRepository
	auditRepo     repository.AuditRepository
	coordinator   *billing.Coordinator
	publisher     events.Publisher
	inflight      singleflight.Group
	logger        *zap.Logger
}

func NewDraftService(
	store draftstore.Store,
	inventoryRepo repository.InventoryRepository,
	auditRepo repository.AuditRepository,
	coordinator *billing.Coordinator,
	publisher events.Publisher,
	logger *zap.Logger,
) DraftService {
	return &draftService{
		store:         store,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		coordinator:   coordinator,
		publisher:     publisher,
		logger:        logger.Named("draft"),
	}
}

func (s *draftService) view(d billing.Draft, inventory []billing.InventoryItem) *DraftResponse {
	b := billing.ResumeBuilder(d, inventory)
	availability := make(map[string]decimal.Decimal, len(inventory))
	for id, qty := range b.Availability() {
		availability[id.String()] = qty
	}
	draft := b.Draft()
	if draft.Items == nil {
		draft.Items = []billing.InvoiceItem{}
	}
	return &DraftResponse{
		Draft:        draft,
		Totals:       b.ComputeTotals(),
		Availability: availability,
	}
}

func (s *draftService) Get(ctx context.Context, ownerID uuid.UUID) (*DraftResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	inventory, err := s.inventoryRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	d, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return s.view(d, inventory), nil
}

// mutate applies fn to a builder over the stored draft and the current
// inventory. Nothing is saved when fn fails.
func (s *draftService) mutate(ctx context.Context, ownerID uuid.UUID, fn func(b *billing.Builder) error) (*DraftResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	inventory, err := s.inventoryRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	d, err := s.store.Update(ctx, ownerID, func(d *billing.Draft) error {
		b := billing.ResumeBuilder(*d, inventory)
		if err := fn(b); err != nil {
			return err
		}
		*d = b.Draft()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(d, inventory), nil
}

func (s *draftService) AddItem(ctx context.Context, ownerID uuid.UUID, req AddDraftItemRequest) (*DraftResponse, error) {
	itemID, err := uuid.Parse(req.InventoryItemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", billing.ErrItemNotFound, req.InventoryItemID)
	}
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		return b.AddOrMergeItem(itemID, req.Quantity)
	})
}

func (s *draftService) UpdateItem(ctx context.Context, ownerID uuid.UUID, index int, req UpdateDraftItemRequest) (*DraftResponse, error) {
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		return b.SetItemQuantity(index, req.Quantity)
	})
}

func (s *draftService) RemoveItem(ctx context.Context, ownerID uuid.UUID, index int) (*DraftResponse, error) {
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		return b.RemoveItem(index)
	})
}

func (s *draftService) SetBuyer(ctx context.Context, ownerID uuid.UUID, req BuyerRequest) (*DraftResponse, error) {
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		b.SetBuyer(billing.BuyerDetails{
			Name:    req.Name,
			Address: req.Address,
			Phone:   req.Phone,
			Email:   req.Email,
			GSTIN:   req.GSTIN,
		})
		return nil
	})
}

func (s *draftService) SetNotes(ctx context.Context, ownerID uuid.UUID, req NotesRequest) (*DraftResponse, error) {
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		b.SetNotes(req.Notes)
		return nil
	})
}

func (s *draftService) SetAdjustments(ctx context.Context, ownerID uuid.UUID, req AdjustmentsRequest) (*DraftResponse, error) {
	return s.mutate(ctx, ownerID, func(b *billing.Builder) error {
		if req.Discount != nil {
			if err := b.SetDiscount(*req.Discount); err != nil {
				return err
			}
		}
		if req.TaxPercent != nil {
			if err := b.SetTaxPercent(*req.TaxPercent); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *draftService) Discard(ctx context.Context, ownerID uuid.UUID) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ownerID); err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	return nil
}

// Commit collapses concurrent commits of one owner into a single run. The run
// outlives a cancelled caller, since other callers may be waiting on it.
func (s *draftService) Commit(ctx context.Context, ownerID uuid.UUID) (*CommitResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.inflight.Do(ownerID.String(), func() (interface{}, error) {
		return s.commit(runCtx, ownerID)
	})
	if shared {
		s.logger.Debug("Commit shared with a concurrent request", zap.String("owner_id", ownerID.String()))
	}
	res, _ := v.(*CommitResponse)
	return res, err
}

func (s *draftService) commit(ctx context.Context, ownerID uuid.UUID) (*CommitResponse, error) {
	d, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	result, err := s.coordinator.Commit(ctx, ownerID, d)

	// Once a header exists, committing the same draft again would create a
	// second invoice.
	var ce *billing.CommitError
	if result != nil || (errors.As(err, &ce) && ce.PartiallyCreated()) {
		if delErr := s.store.Delete(ctx, ownerID); delErr != nil {
			s.logger.Error("Failed to clear committed draft", zap.String("owner_id", ownerID.String()), zap.Error(delErr))
		}
	}
	if result == nil {
		return nil, err
	}

	inv := result.Invoice
	details := map[string]interface{}{
		"invoice_number": inv.InvoiceNumber,
		"total":          inv.Total.String(),
		"items":          len(inv.Items),
		"adjustments":    result.Adjustments,
	}
	if auditErr := writeAudit(ctx, s.auditRepo, ownerID, model.ActionCommitInvoice, inv.ID.String(), inv.InvoiceNumber, details); auditErr != nil {
		s.logger.Error("Invoice committed without audit entry", zap.String("invoice_number", inv.InvoiceNumber), zap.Error(auditErr))
	}

	publish(ctx, s.publisher, s.logger, events.New(events.InvoiceCommitted, ownerID, map[string]string{
		"invoice_id":     inv.ID.String(),
		"invoice_number": inv.InvoiceNumber,
		"total":          inv.Total.String(),
	}))
	for _, adj := range result.Adjustments {
		if adj.Skipped {
			continue
		}
		publish(ctx, s.publisher, s.logger, events.New(events.InventoryUpdated, ownerID, map[string]string{
			"id":       adj.ItemID.String(),
			"quantity": adj.After.String(),
		}))
	}

	return &CommitResponse{Invoice: toInvoiceResponse(inv), Adjustments: result.Adjustments}, err
}

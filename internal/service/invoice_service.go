package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/document"
	"invoicedesk/internal/events"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InvoiceResponse struct {
	ID            string                `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	Date          time.Time             `json:"date"`
	Buyer         billing.BuyerDetails  `json:"buyer"`
	Items         []billing.InvoiceItem `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal" swaggertype:"string"`
	Discount      decimal.Decimal       `json:"discount" swaggertype:"string"`
	TaxPercent    decimal.Decimal       `json:"tax_percent" swaggertype:"string"`
	Tax           decimal.Decimal       `json:"tax" swaggertype:"string"`
	Total         decimal.Decimal       `json:"total" swaggertype:"string"`
	Notes         string                `json:"notes,omitempty"`
	Status        string                `json:"status"`
}

type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft sent paid" example:"sent"`
}

type InvoiceService interface {
	List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]InvoiceResponse, int64, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (InvoiceResponse, error)
	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, req UpdateInvoiceStatusRequest) (InvoiceResponse, error)
	Document(ctx context.Context, ownerID, id uuid.UUID) (document.View, error)
	DocumentByNumber(ctx context.Context, ownerID uuid.UUID, number string) (document.View, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   events.Publisher
	docOptions  document.Options
	logger      *zap.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	docOptions document.Options,
	logger *zap.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
		docOptions:  docOptions,
		logger:      logger.Named("invoice"),
	}
}

func toInvoiceResponse(inv billing.Invoice) InvoiceResponse {
	items := inv.Items
	if items == nil {
		items = []billing.InvoiceItem{}
	}
	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		Buyer:         inv.Buyer,
		Items:         items,
		Subtotal:      inv.Subtotal,
		Discount:      inv.Discount,
		TaxPercent:    inv.TaxPercent,
		Tax:           inv.Tax,
		Total:         inv.Total,
		Notes:         inv.Notes,
		Status:        string(inv.Status),
	}
}

// List filters by status when one is given. A limit of zero returns every invoice.
func (s *invoiceService) List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]InvoiceResponse, int64, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, 0, err
	}
	if status != "" {
		if _, err := billing.ParseStatus(status); err != nil {
			return nil, 0, err
		}
	}
	if page <= 0 {
		page = 1
	}

	invoices, total, err := s.invoiceRepo.List(ctx, ownerID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		res = append(res, toInvoiceResponse(inv))
	}
	return res, total, nil
}

func (s *invoiceService) Get(ctx context.Context, ownerID, id uuid.UUID) (InvoiceResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return InvoiceResponse{}, err
	}
	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, req UpdateInvoiceStatusRequest) (InvoiceResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return InvoiceResponse{}, err
	}
	status, err := billing.ParseStatus(req.Status)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var inv billing.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.invoiceRepo.FindByID(txCtx, ownerID, id)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.UpdateStatus(txCtx, ownerID, id, status); err != nil {
			return fmt.Errorf("failed to update invoice status: %w", err)
		}
		details := map[string]string{"from": string(current.Status), "to": string(status)}
		if err := writeAudit(txCtx, s.auditRepo, ownerID, model.ActionUpdateInvoiceStatus, id.String(), current.InvoiceNumber, details); err != nil {
			return err
		}
		current.Status = status
		inv = current
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	publish(ctx, s.publisher, s.logger, events.New(events.InvoiceStatusChanged, ownerID, map[string]string{
		"invoice_id":     inv.ID.String(),
		"invoice_number": inv.InvoiceNumber,
		"status":         string(inv.Status),
	}))
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) Document(ctx context.Context, ownerID, id uuid.UUID) (document.View, error) {
	if err := requireOwner(ownerID); err != nil {
		return document.View{}, err
	}
	inv, err := s.invoiceRepo.FindByID(ctx, ownerID, id)
	if err != nil {
		return document.View{}, err
	}
	return s.build(ctx, ownerID, inv)
}

func (s *invoiceService) DocumentByNumber(ctx context.Context, ownerID uuid.UUID, number string) (document.View, error) {
	if err := requireOwner(ownerID); err != nil {
		return document.View{}, err
	}
	inv, err := s.invoiceRepo.FindByNumber(ctx, ownerID, number)
	if err != nil {
		return document.View{}, err
	}
	return s.build(ctx, ownerID, inv)
}

func (s *invoiceService) build(ctx context.Context, ownerID uuid.UUID, inv billing.Invoice) (document.View, error) {
	profile, err := loadProfile(ctx, s.profileRepo, ownerID)
	if err != nil {
		return document.View{}, err
	}
	if len(inv.Items) == 0 {
		// header stored but items were not; still printable
		s.logger.Warn("Rendering invoice without items", zap.String("invoice_number", inv.InvoiceNumber))
	}
	return document.Build(inv, profile, s.docOptions), nil
}

// IsNotFound reports errors that mean the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, billing.ErrItemNotFound)
}

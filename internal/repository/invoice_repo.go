package repository

import (
	"context"
	"errors"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"
	"invoicedesk/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository also satisfies billing.InvoiceStore.
type InvoiceRepository interface {
	CountInvoices(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error
	CreateInvoiceItems(ctx context.Context, invoiceID uuid.UUID, items []billing.InvoiceItem) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (billing.Invoice, error)
	FindByNumber(ctx context.Context, ownerID uuid.UUID, number string) (billing.Invoice, error)
	List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]billing.Invoice, int64, error)
	UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status billing.Status) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CountInvoices(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateInvoice inserts the header only.
func (r *invoiceRepository) CreateInvoice(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error {
	row := invoiceFromDomain(ownerID, *inv)
	if err := GetDB(ctx, r.db).Omit(clause.Associations).Create(&row).Error; err != nil {
		return err
	}
	inv.ID = row.ID
	return nil
}

func (r *invoiceRepository) CreateInvoiceItems(ctx context.Context, invoiceID uuid.UUID, items []billing.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := invoiceItemsFromDomain(invoiceID, items)
	return GetDB(ctx, r.db).Create(&rows).Error
}

func (r *invoiceRepository) withItems(ctx context.Context) *gorm.DB {
	return GetDB(ctx, r.db).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})
}

func (r *invoiceRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (billing.Invoice, error) {
	var row model.Invoice
	err := r.withItems(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.Invoice{}, ErrNotFound
	}
	if err != nil {
		return billing.Invoice{}, err
	}
	return invoiceToDomain(row)
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, ownerID uuid.UUID, number string) (billing.Invoice, error) {
	var row model.Invoice
	err := r.withItems(ctx).Where("owner_id = ? AND invoice_number = ?", ownerID, number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.Invoice{}, ErrNotFound
	}
	if err != nil {
		return billing.Invoice{}, err
	}
	return invoiceToDomain(row)
}

// List returns invoices newest first. A limit of zero or less returns all of them.
func (r *invoiceRepository) List(ctx context.Context, ownerID uuid.UUID, status string, page, limit int) ([]billing.Invoice, int64, error) {
	var rows []model.Invoice
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := r.withItems(ctx).Where("owner_id = ?", ownerID)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	fetch = fetch.Order("date desc").Order("invoice_number desc").Scopes(pagination.Paginate(page, limit))
	if err := fetch.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]billing.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := invoiceToDomain(row)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status billing.Status) error {
	res := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

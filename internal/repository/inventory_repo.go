package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"
	"invoicedesk/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, item *billing.InventoryItem) error
	Update(ctx context.Context, ownerID, id uuid.UUID, patch InventoryPatch) (billing.InventoryItem, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (billing.InventoryItem, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]billing.InventoryItem, error)
	Search(ctx context.Context, ownerID uuid.UUID, query string) ([]billing.InventoryItem, error)
	Decrement(ctx context.Context, ownerID, itemID uuid.UUID, quantity decimal.Decimal, invoiceID uuid.UUID) (billing.StockAdjustment, error)
	ListMovements(ctx context.Context, ownerID, itemID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

// Create stores the item and records its opening stock as an IN movement.
func (r *inventoryRepository) Create(ctx context.Context, ownerID uuid.UUID, item *billing.InventoryItem) error {
	row := inventoryFromDomain(ownerID, *item)
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if row.Quantity.IsZero() {
			return nil
		}
		return tx.Create(&model.StockMovement{
			OwnerID:         ownerID,
			InventoryItemID: row.ID,
			MovementType:    model.MovementIn,
			QuantityChanged: row.Quantity,
			StockBefore:     model.NewDecimal(decimal.Zero),
			StockAfter:      row.Quantity,
			Note:            "opening stock",
		}).Error
	})
	if err != nil {
		return err
	}
	*item = inventoryToDomain(row)
	return nil
}

// Update applies the patch and records a quantity change as an ADJUST movement.
func (r *inventoryRepository) Update(ctx context.Context, ownerID, id uuid.UUID, patch InventoryPatch) (billing.InventoryItem, error) {
	var updated model.InventoryItem
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var current model.InventoryItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).First(&current).Error; err != nil {
			return err
		}

		if cols := patch.Columns(); len(cols) > 0 {
			if err := tx.Model(&current).Updates(cols).Error; err != nil {
				return err
			}
		}

		if patch.Quantity != nil && !patch.Quantity.Equal(current.Quantity.Decimal) {
			if err := tx.Create(&model.StockMovement{
				OwnerID:         ownerID,
				InventoryItemID: id,
				MovementType:    model.MovementAdjust,
				QuantityChanged: model.NewDecimal(patch.Quantity.Sub(current.Quantity.Decimal)),
				StockBefore:     current.Quantity,
				StockAfter:      model.NewDecimal(*patch.Quantity),
				Note:            "manual adjustment",
			}).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).First(&updated).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.InventoryItem{}, billing.ErrItemNotFound
	}
	if err != nil {
		return billing.InventoryItem{}, err
	}
	return inventoryToDomain(updated), nil
}

func (r *inventoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.InventoryItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return billing.ErrItemNotFound
	}
	return nil
}

func (r *inventoryRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (billing.InventoryItem, error) {
	var row model.InventoryItem
	err := GetDB(ctx, r.db).Where("id = ? AND owner_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.InventoryItem{}, billing.ErrItemNotFound
	}
	if err != nil {
		return billing.InventoryItem{}, err
	}
	return inventoryToDomain(row), nil
}

// List returns the owner's items, newest first.
func (r *inventoryRepository) List(ctx context.Context, ownerID uuid.UUID) ([]billing.InventoryItem, error) {
	return r.find(GetDB(ctx, r.db).Where("owner_id = ?", ownerID))
}

// Search is List restricted to items whose name contains query, ignoring case.
// An empty query matches everything.
func (r *inventoryRepository) Search(ctx context.Context, ownerID uuid.UUID, query string) ([]billing.InventoryItem, error) {
	db := GetDB(ctx, r.db).Where("owner_id = ?", ownerID)
	if query != "" {
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(query))+"%")
	}
	return r.find(db)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (r *inventoryRepository) find(db *gorm.DB) ([]billing.InventoryItem, error) {
	var rows []model.InventoryItem
	if err := db.Order("created_at desc").Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]billing.InventoryItem, len(rows))
	for i, row := range rows {
		items[i] = inventoryToDomain(row)
	}
	return items, nil
}

// Decrement lowers the stock of one item by quantity, stopping at zero, and
// writes an OUT movement that points at the invoice.
func (r *inventoryRepository) Decrement(ctx context.Context, ownerID, itemID uuid.UUID, quantity decimal.Decimal, invoiceID uuid.UUID) (billing.StockAdjustment, error) {
	var adj billing.StockAdjustment
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var current model.InventoryItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", itemID, ownerID).First(&current).Error; err != nil {
			return err
		}

		after := decimal.Max(current.Quantity.Sub(quantity), decimal.Zero)
		if err := tx.Model(&model.InventoryItem{}).Where("id = ?", itemID).
			Update("quantity", model.NewDecimal(after)).Error; err != nil {
			return err
		}

		ref := invoiceID
		if err := tx.Create(&model.StockMovement{
			OwnerID:         ownerID,
			InventoryItemID: itemID,
			InvoiceID:       &ref,
			MovementType:    model.MovementOut,
			QuantityChanged: model.NewDecimal(after.Sub(current.Quantity.Decimal)),
			StockBefore:     current.Quantity,
			StockAfter:      model.NewDecimal(after),
		}).Error; err != nil {
			return err
		}

		adj = billing.StockAdjustment{
			ItemID:    itemID,
			Name:      current.Name,
			Requested: quantity,
			Before:    current.Quantity.Decimal,
			After:     after,
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return billing.StockAdjustment{}, billing.ErrItemNotFound
	}
	if err != nil {
		return billing.StockAdjustment{}, fmt.Errorf("decrement %s: %w", itemID, err)
	}
	return adj, nil
}

func (r *inventoryRepository) ListMovements(ctx context.Context, ownerID, itemID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("owner_id = ? AND inventory_item_id = ?", ownerID, itemID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("created_at desc").Scopes(pagination.Paginate(page, limit)).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

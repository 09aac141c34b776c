package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLedger is a read-only projection of what is still available to stage.
// It is cheap to build, so callers rebuild it after every change instead of
// keeping it around.
type StockLedger struct {
	stock  map[uuid.UUID]InventoryItem
	staged []InvoiceItem
}

// NewStockLedger indexes the inventory snapshot and keeps a reference to the
// staged lines of the draft.
func NewStockLedger(inventory []InventoryItem, staged []InvoiceItem) StockLedger {
	stock := make(map[uuid.UUID]InventoryItem, len(inventory))
	for _, item := range inventory {
		stock[item.ID] = item
	}
	return StockLedger{stock: stock, staged: staged}
}

// Lookup returns the committed inventory item.
func (l StockLedger) Lookup(id uuid.UUID) (InventoryItem, bool) {
	item, ok := l.stock[id]
	return item, ok
}

// Available returns committed stock minus everything staged for id.
func (l StockLedger) Available(id uuid.UUID) (decimal.Decimal, error) {
	return l.AvailableExcluding(id, -1)
}

// AvailableExcluding is Available without counting the staged line at index,
// which is the line being edited. Pass -1 to count every line.
func (l StockLedger) AvailableExcluding(id uuid.UUID, index int) (decimal.Decimal, error) {
	item, ok := l.stock[id]
	if !ok {
		return decimal.Zero, ErrItemNotFound
	}
	available := item.Quantity
	for i, line := range l.staged {
		if i == index || line.InventoryItemID != id {
			continue
		}
		available = available.Sub(line.Quantity)
	}
	return available, nil
}

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceStore persists committed invoices.
type InvoiceStore interface {
	CountInvoices(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// CreateInvoice inserts the header and sets inv.ID.
	CreateInvoice(ctx context.Context, ownerID uuid.UUID, inv *Invoice) error
	CreateInvoiceItems(ctx context.Context, invoiceID uuid.UUID, items []InvoiceItem) error
}

// StockStore applies the inventory side of a commit.
type StockStore interface {
	// Decrement lowers the quantity of one item, never below zero, and returns
	// ErrItemNotFound when the item no longer exists.
	Decrement(ctx context.Context, ownerID, itemID uuid.UUID, quantity decimal.Decimal, invoiceID uuid.UUID) (StockAdjustment, error)
}

// TxRunner runs fn in a single transaction carried by the context.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockAdjustment records what one decrement did.
type StockAdjustment struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Requested decimal.Decimal `json:"requested"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
	Skipped   bool            `json:"skipped,omitempty"`
}

// Clamped reports whether stock ran out before the full quantity was taken.
func (a StockAdjustment) Clamped() bool {
	return !a.Skipped && a.Before.LessThan(a.Requested)
}

type CommitResult struct {
	Invoice     Invoice           `json:"invoice"`
	Adjustments []StockAdjustment `json:"adjustments"`
}

// Coordinator turns a validated draft into a committed invoice.
type Coordinator struct {
	invoices InvoiceStore
	stock    StockStore
	tx       TxRunner
	now      func() time.Time
	logger   *zap.Logger
}

type CoordinatorOption func(*Coordinator)

// WithTransactions runs header, items and stock updates in one transaction.
// Without it each step is stored on its own and a failure leaves earlier steps
// in place.
func WithTransactions(tx TxRunner) CoordinatorOption {
	return func(c *Coordinator) { c.tx = tx }
}

func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = logger }
}

func NewCoordinator(invoices InvoiceStore, stock StockStore, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		invoices: invoices,
		stock:    stock,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Atomic reports whether commits run in a transaction.
func (c *Coordinator) Atomic() bool {
	return c.tx != nil
}

// Commit validates the draft, numbers it, stores the header and the items and
// then decrements stock item by item.
//
// In best-effort mode a failed decrement does not stop the others. The result
// is returned together with a CommitError for StepInventory so the caller still
// learns which invoice was created. A failure at StepItems leaves the header
// stored and touches no stock.
//
// Commit is not idempotent: calling it twice creates two invoices.
//
// A context cancelled before Commit is called stops it. Once the pipeline has
// started, cancellation is ignored so a stored invoice always gets its stock
// taken.
func (c *Coordinator) Commit(ctx context.Context, ownerID uuid.UUID, draft Draft) (*CommitResult, error) {
	if ownerID == uuid.Nil {
		return nil, ErrAuthRequired
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	if c.tx == nil {
		return c.run(ctx, ownerID, draft)
	}

	var result *CommitResult
	err := c.tx.RunInTx(ctx, func(txCtx context.Context) error {
		res, err := c.run(txCtx, ownerID, draft)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		var ce *CommitError
		if errors.As(err, &ce) {
			// rolled back, nothing was kept
			ce.InvoiceID = uuid.Nil
			return nil, ce
		}
		return nil, &CommitError{Step: StepTransaction, Err: err}
	}
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, ownerID uuid.UUID, draft Draft) (*CommitResult, error) {
	count, err := c.invoices.CountInvoices(ctx, ownerID)
	if err != nil {
		return nil, &CommitError{Step: StepNumber, Err: err}
	}

	now := c.now().UTC().Truncate(time.Microsecond)
	totals := draft.Totals()
	inv := Invoice{
		InvoiceNumber: NextInvoiceNumber(count, now.Year()),
		Date:          now,
		Buyer:         draft.Buyer,
		Items:         append([]InvoiceItem(nil), draft.Items...),
		Subtotal:      totals.Subtotal,
		Discount:      totals.DiscountAmount,
		TaxPercent:    draft.TaxPercent,
		Tax:           totals.TaxAmount,
		Total:         totals.Total,
		Notes:         draft.Notes,
		Status:        StatusDraft,
	}

	if err := c.invoices.CreateInvoice(ctx, ownerID, &inv); err != nil {
		return nil, &CommitError{Step: StepHeader, InvoiceNumber: inv.InvoiceNumber, Err: err}
	}

	if err := c.invoices.CreateInvoiceItems(ctx, inv.ID, inv.Items); err != nil {
		c.logger.Error("Invoice items were not stored",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return nil, &CommitError{Step: StepItems, InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, Err: err}
	}

	adjustments, err := c.decrement(ctx, ownerID, inv)
	result := &CommitResult{Invoice: inv, Adjustments: adjustments}
	if err != nil {
		return result, &CommitError{Step: StepInventory, InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, Err: err}
	}

	c.logger.Info("Invoice committed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("items", len(inv.Items)),
		zap.String("total", inv.Total.String()))
	return result, nil
}

// decrement stops at the first failure inside a transaction and otherwise
// collects every failure.
func (c *Coordinator) decrement(ctx context.Context, ownerID uuid.UUID, inv Invoice) ([]StockAdjustment, error) {
	adjustments := make([]StockAdjustment, 0, len(inv.Items))
	var errs []error

	for _, item := range inv.Items {
		adj, err := c.stock.Decrement(ctx, ownerID, item.InventoryItemID, item.Quantity, inv.ID)
		switch {
		case errors.Is(err, ErrItemNotFound):
			c.logger.Warn("Inventory item gone, stock not adjusted",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.String("item_id", item.InventoryItemID.String()))
			adjustments = append(adjustments, StockAdjustment{
				ItemID:    item.InventoryItemID,
				Name:      item.Name,
				Requested: item.Quantity,
				Skipped:   true,
			})
		case err != nil:
			if c.tx != nil {
				return adjustments, fmt.Errorf("%s: %w", item.Name, err)
			}
			c.logger.Error("Failed to adjust stock",
				zap.String("invoice_number", inv.InvoiceNumber),
				zap.String("item_id", item.InventoryItemID.String()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", item.Name, err))
		default:
			if adj.Name == "" {
				adj.Name = item.Name
			}
			adjustments = append(adjustments, adj)
		}
	}
	return adjustments, errors.Join(errs...)
}

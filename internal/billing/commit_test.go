package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu        sync.Mutex
	calls     []string
	count     int64
	invoices  map[uuid.UUID]Invoice
	stock     map[uuid.UUID]decimal.Decimal
	headerErr error
	itemsErr  error
	stockErr  map[uuid.UUID]error
}

func newFakeStore(items ...InventoryItem) *fakeStore {
	s := &fakeStore{
		invoices: make(map[uuid.UUID]Invoice),
		stock:    make(map[uuid.UUID]decimal.Decimal),
		stockErr: make(map[uuid.UUID]error),
	}
	for _, it := range items {
		s.stock[it.ID] = it.Quantity
	}
	return s
}

func (s *fakeStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeStore) CountInvoices(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	s.record("count")
	return s.count, nil
}

func (s *fakeStore) CreateInvoice(ctx context.Context, ownerID uuid.UUID, inv *Invoice) error {
	s.record("header")
	if s.headerErr != nil {
		return s.headerErr
	}
	inv.ID = uuid.New()
	s.invoices[inv.ID] = *inv
	s.count++
	return nil
}

func (s *fakeStore) CreateInvoiceItems(ctx context.Context, invoiceID uuid.UUID, items []InvoiceItem) error {
	s.record("items")
	return s.itemsErr
}

func (s *fakeStore) Decrement(ctx context.Context, ownerID, itemID uuid.UUID, quantity decimal.Decimal, invoiceID uuid.UUID) (StockAdjustment, error) {
	s.record("decrement")
	if err := s.stockErr[itemID]; err != nil {
		return StockAdjustment{}, err
	}
	before, ok := s.stock[itemID]
	if !ok {
		return StockAdjustment{}, ErrItemNotFound
	}
	after := decimal.Max(before.Sub(quantity), decimal.Zero)
	s.stock[itemID] = after
	return StockAdjustment{ItemID: itemID, Requested: quantity, Before: before, After: after}, nil
}

// fakeTx discards the store changes made inside fn when it fails.
type fakeTx struct {
	store      *fakeStore
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	stock := make(map[uuid.UUID]decimal.Decimal, len(f.store.stock))
	for k, v := range f.store.stock {
		stock[k] = v
	}
	count := f.store.count
	if err := fn(ctx); err != nil {
		f.store.stock = stock
		f.store.count = count
		f.store.invoices = make(map[uuid.UUID]Invoice)
		f.rolledBack = true
		return err
	}
	return f.commitErr
}

var fixedNow = time.Date(2025, time.March, 14, 9, 30, 0, 123456789, time.FixedZone("PKT", 5*3600))

func committableDraft(t *testing.T, inventory []InventoryItem, lines map[uuid.UUID]string) Draft {
	t.Helper()
	b := NewBuilder(inventory)
	for _, it := range inventory {
		if q, ok := lines[it.ID]; ok {
			if err := b.AddOrMergeItem(it.ID, dec(q)); err != nil {
				t.Fatalf("stage %s: %v", it.Name, err)
			}
		}
	}
	b.SetBuyer(validBuyer())
	return b.Draft()
}

func TestCommitDecrementsInventory(t *testing.T) {
	store := newFakeStore(itemA, itemB)
	store.count = 3
	c := NewCoordinator(store, store, WithClock(func() time.Time { return fixedNow }))

	draft := committableDraft(t, []InventoryItem{itemA, itemB}, map[uuid.UUID]string{itemA.ID: "4", itemB.ID: "5"})
	res, err := c.Commit(context.Background(), uuid.New(), draft)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if !store.stock[itemA.ID].Equal(dec("6")) || !store.stock[itemB.ID].Equal(dec("0")) {
		t.Errorf("stock after commit: A=%s B=%s", store.stock[itemA.ID], store.stock[itemB.ID])
	}

	inv := res.Invoice
	if inv.InvoiceNumber != "INV-2025-0004" {
		t.Errorf("number = %q", inv.InvoiceNumber)
	}
	if inv.Status != StatusDraft {
		t.Errorf("status = %q", inv.Status)
	}
	if inv.Date.Location() != time.UTC || inv.Date.Nanosecond()%1000 != 0 {
		t.Errorf("date not normalised: %v", inv.Date)
	}
	if !inv.Total.Equal(dec("32.5")) {
		t.Errorf("total = %s, want 32.5", inv.Total)
	}
	if len(res.Adjustments) != 2 {
		t.Fatalf("adjustments = %+v", res.Adjustments)
	}
	if res.Adjustments[1].Clamped() {
		t.Errorf("B was exactly exhausted, not clamped")
	}

	want := []string{"count", "header", "items", "decrement", "decrement"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", store.calls, want)
		}
	}
}

func TestCommitEmptyDraftTouchesNoStore(t *testing.T) {
	store := newFakeStore()
	c := NewCoordinator(store, store)

	d := Draft{Buyer: validBuyer()}
	if _, err := c.Commit(context.Background(), uuid.New(), d); !errors.Is(err, ErrEmptyItemList) {
		t.Fatalf("expected ErrEmptyItemList, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store was called: %v", store.calls)
	}
}

func TestCommitRequiresOwner(t *testing.T) {
	store := newFakeStore(itemA)
	c := NewCoordinator(store, store)
	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})

	if _, err := c.Commit(context.Background(), uuid.Nil, draft); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store was called: %v", store.calls)
	}
}

func TestCommitHeaderFailure(t *testing.T) {
	store := newFakeStore(itemA)
	store.headerErr = errors.New("duplicate key")
	c := NewCoordinator(store, store)
	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})

	_, err := c.Commit(context.Background(), uuid.New(), draft)
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Step != StepHeader {
		t.Fatalf("expected header CommitError, got %v", err)
	}
	if ce.PartiallyCreated() {
		t.Errorf("no header was stored")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("error should match ErrPersistence")
	}
	if !store.stock[itemA.ID].Equal(dec("10")) {
		t.Errorf("stock changed: %s", store.stock[itemA.ID])
	}
}

func TestCommitItemsFailureStopsBeforeStock(t *testing.T) {
	store := newFakeStore(itemA)
	store.itemsErr = errors.New("connection reset")
	c := NewCoordinator(store, store, WithClock(func() time.Time { return fixedNow }))
	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "2"})

	res, err := c.Commit(context.Background(), uuid.New(), draft)
	if res != nil {
		t.Errorf("expected no result")
	}
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Step != StepItems {
		t.Fatalf("expected items CommitError, got %v", err)
	}
	if !ce.PartiallyCreated() || ce.InvoiceNumber != "INV-2025-0001" {
		t.Errorf("partial invoice not reported: %+v", ce)
	}
	if !store.stock[itemA.ID].Equal(dec("10")) {
		t.Errorf("stock changed: %s", store.stock[itemA.ID])
	}
}

func TestCommitBestEffortInventory(t *testing.T) {
	itemC := InventoryItem{ID: uuid.New(), Name: "Salt", Quantity: dec("3"), PricePerUnit: dec("1"), Unit: "kg"}
	store := newFakeStore(itemA, itemB, itemC)
	store.stockErr[itemB.ID] = errors.New("lock timeout")
	c := NewCoordinator(store, store)

	draft := committableDraft(t, []InventoryItem{itemA, itemB, itemC}, map[uuid.UUID]string{itemA.ID: "1", itemB.ID: "1", itemC.ID: "2"})
	// C disappears between staging and commit
	delete(store.stock, itemC.ID)

	res, err := c.Commit(context.Background(), uuid.New(), draft)
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Step != StepInventory {
		t.Fatalf("expected inventory CommitError, got %v", err)
	}
	if res == nil || res.Invoice.ID != ce.InvoiceID {
		t.Fatalf("result must carry the created invoice")
	}
	if !store.stock[itemA.ID].Equal(dec("9")) {
		t.Errorf("A should still be decremented, got %s", store.stock[itemA.ID])
	}
	if len(res.Adjustments) != 2 || !res.Adjustments[1].Skipped {
		t.Errorf("adjustments = %+v", res.Adjustments)
	}
}

func TestCommitSkipsMissingInventoryWithoutError(t *testing.T) {
	store := newFakeStore(itemA)
	c := NewCoordinator(store, store)
	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})
	delete(store.stock, itemA.ID)

	res, err := c.Commit(context.Background(), uuid.New(), draft)
	if err != nil {
		t.Fatalf("missing item should be skipped, got %v", err)
	}
	if len(res.Adjustments) != 1 || !res.Adjustments[0].Skipped {
		t.Errorf("adjustments = %+v", res.Adjustments)
	}
}

func TestCommitAtomicRollsBack(t *testing.T) {
	store := newFakeStore(itemA, itemB)
	store.stockErr[itemB.ID] = errors.New("lock timeout")
	tx := &fakeTx{store: store}
	c := NewCoordinator(store, store, WithTransactions(tx))
	if !c.Atomic() {
		t.Fatal("expected atomic coordinator")
	}

	draft := committableDraft(t, []InventoryItem{itemA, itemB}, map[uuid.UUID]string{itemA.ID: "4", itemB.ID: "1"})
	res, err := c.Commit(context.Background(), uuid.New(), draft)
	if res != nil {
		t.Errorf("expected no result after rollback")
	}
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Step != StepInventory {
		t.Fatalf("expected inventory CommitError, got %v", err)
	}
	if ce.PartiallyCreated() {
		t.Errorf("rolled back commit must not report a stored invoice")
	}
	if !tx.rolledBack || len(store.invoices) != 0 {
		t.Errorf("transaction was not rolled back")
	}
	if !store.stock[itemA.ID].Equal(dec("10")) {
		t.Errorf("A = %s, want 10", store.stock[itemA.ID])
	}
}

func TestCommitIsNotIdempotent(t *testing.T) {
	store := newFakeStore(itemA)
	c := NewCoordinator(store, store, WithClock(func() time.Time { return fixedNow }))
	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})

	first, err := c.Commit(context.Background(), uuid.New(), draft)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Commit(context.Background(), uuid.New(), draft)
	if err != nil {
		t.Fatal(err)
	}
	if first.Invoice.ID == second.Invoice.ID || first.Invoice.InvoiceNumber == second.Invoice.InvoiceNumber {
		t.Errorf("expected two distinct invoices, got %s and %s", first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
	}
	if !store.stock[itemA.ID].Equal(dec("8")) {
		t.Errorf("stock = %s, want 8", store.stock[itemA.ID])
	}
}

// cancellingStore cancels the request context as soon as the items are stored
// and refuses to decrement on a cancelled context, like a database driver.
type cancellingStore struct {
	*fakeStore
	cancel context.CancelFunc
}

func (s *cancellingStore) CreateInvoiceItems(ctx context.Context, invoiceID uuid.UUID, items []InvoiceItem) error {
	err := s.fakeStore.CreateInvoiceItems(ctx, invoiceID, items)
	s.cancel()
	return err
}

func (s *cancellingStore) Decrement(ctx context.Context, ownerID, itemID uuid.UUID, quantity decimal.Decimal, invoiceID uuid.UUID) (StockAdjustment, error) {
	if err := ctx.Err(); err != nil {
		return StockAdjustment{}, err
	}
	return s.fakeStore.Decrement(ctx, ownerID, itemID, quantity, invoiceID)
}

func TestCommitFinishesAfterCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancellingStore{fakeStore: newFakeStore(itemA, itemB), cancel: cancel}
	c := NewCoordinator(store, store)

	draft := committableDraft(t, []InventoryItem{itemA, itemB}, map[uuid.UUID]string{itemA.ID: "4", itemB.ID: "2"})
	res, err := c.Commit(ctx, uuid.New(), draft)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("context was not cancelled during the commit")
	}
	if len(res.Adjustments) != 2 {
		t.Errorf("adjustments = %+v", res.Adjustments)
	}
	if !store.stock[itemA.ID].Equal(dec("6")) || !store.stock[itemB.ID].Equal(dec("3")) {
		t.Errorf("stock after commit: A=%s B=%s, want 6 and 3", store.stock[itemA.ID], store.stock[itemB.ID])
	}
}

func TestCommitCancelledBeforeStartTouchesNoStore(t *testing.T) {
	store := newFakeStore(itemA)
	c := NewCoordinator(store, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})
	if _, err := c.Commit(ctx, uuid.New(), draft); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("store was called: %v", store.calls)
	}
}

func TestCommitTransactionFailureHasItsOwnStep(t *testing.T) {
	store := newFakeStore(itemA)
	tx := &fakeTx{store: store, commitErr: errors.New("could not serialize access")}
	c := NewCoordinator(store, store, WithTransactions(tx))

	draft := committableDraft(t, []InventoryItem{itemA}, map[uuid.UUID]string{itemA.ID: "1"})
	res, err := c.Commit(context.Background(), uuid.New(), draft)
	if res != nil {
		t.Errorf("expected no result when the transaction fails")
	}
	var ce *CommitError
	if !errors.As(err, &ce) || ce.Step != StepTransaction {
		t.Fatalf("expected transaction CommitError, got %v", err)
	}
	if !errors.Is(err, ErrPersistence) || ce.PartiallyCreated() {
		t.Errorf("transaction failure = %+v", ce)
	}
}

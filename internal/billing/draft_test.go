package billing

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	itemA = InventoryItem{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Name: "Rice", Quantity: dec("10"), PricePerUnit: dec("5"), Unit: "pcs"}
	itemB = InventoryItem{ID: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Name: "Flour", Quantity: dec("5"), PricePerUnit: dec("2.5"), Unit: "kg"}
)

func validBuyer() BuyerDetails {
	return BuyerDetails{Name: "Ali Traders", Address: "12 Mall Road, Lahore", Phone: "+92 300 0000000"}
}

func TestAddOrMergeItemMergesLines(t *testing.T) {
	b := NewBuilder([]InventoryItem{itemA})

	for i := 0; i < 2; i++ {
		if err := b.AddOrMergeItem(itemA.ID, dec("4")); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	d := b.Draft()
	if len(d.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(d.Items))
	}
	if !d.Items[0].Quantity.Equal(dec("8")) || !d.Items[0].Total.Equal(dec("40")) {
		t.Errorf("line = %s x %s, want 8 x 40", d.Items[0].Quantity, d.Items[0].Total)
	}

	err := b.AddOrMergeItem(itemA.ID, dec("3"))
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("error should match ErrInsufficientStock")
	}
	if !stockErr.Available.Equal(dec("2")) {
		t.Errorf("available = %s, want 2", stockErr.Available)
	}
	if stockErr.Error() != "Only 2 pcs available" {
		t.Errorf("message = %q", stockErr.Error())
	}

	if got := b.Draft().Items[0].Quantity; !got.Equal(dec("8")) {
		t.Errorf("failed add changed the draft: quantity %s", got)
	}
}

func TestAddOrMergeItemSplitIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	stock := InventoryItem{ID: uuid.New(), Name: "Sugar", Quantity: dec("1000"), PricePerUnit: dec("1.25"), Unit: "kg"}

	for round := 0; round < 100; round++ {
		b := NewBuilder([]InventoryItem{stock})
		var total int64
		for total < 900 {
			q := int64(1 + rng.Intn(50))
			if err := b.AddOrMergeItem(stock.ID, decimal.New(q, 0)); err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			total += q
		}

		items := b.Draft().Items
		if len(items) != 1 {
			t.Fatalf("round %d: expected 1 line, got %d", round, len(items))
		}
		if !items[0].Quantity.Equal(decimal.New(total, 0)) {
			t.Fatalf("round %d: quantity %s, want %d", round, items[0].Quantity, total)
		}
		if !items[0].Total.Equal(decimal.New(total, 0).Mul(stock.PricePerUnit)) {
			t.Fatalf("round %d: total %s", round, items[0].Total)
		}
	}
}

func TestAddOrMergeItemErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       uuid.UUID
		quantity string
		wantErr  error
	}{
		{name: "unknown item", id: uuid.New(), quantity: "1", wantErr: ErrItemNotFound},
		{name: "unknown item checked before quantity", id: uuid.New(), quantity: "0", wantErr: ErrItemNotFound},
		{name: "zero quantity", id: itemA.ID, quantity: "0", wantErr: ErrInvalidAmount},
		{name: "negative quantity", id: itemA.ID, quantity: "-2", wantErr: ErrInvalidAmount},
		{name: "more than stock", id: itemB.ID, quantity: "5.5", wantErr: ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder([]InventoryItem{itemA, itemB})
			err := b.AddOrMergeItem(tt.id, dec(tt.quantity))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(b.Draft().Items) != 0 {
				t.Errorf("draft should be unchanged")
			}
		})
	}
}

func TestSetItemQuantity(t *testing.T) {
	b := NewBuilder([]InventoryItem{itemA, itemB})
	if err := b.AddOrMergeItem(itemA.ID, dec("4")); err != nil {
		t.Fatal(err)
	}
	if err := b.AddOrMergeItem(itemB.ID, dec("1")); err != nil {
		t.Fatal(err)
	}

	// the edited line does not count against itself
	if err := b.SetItemQuantity(0, dec("10")); err != nil {
		t.Fatalf("set to full stock: %v", err)
	}
	if got := b.Draft().Items[0].Total; !got.Equal(dec("50")) {
		t.Errorf("total = %s, want 50", got)
	}

	if err := b.SetItemQuantity(0, dec("11")); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	if err := b.SetItemQuantity(2, dec("1")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := b.SetItemQuantity(-1, dec("1")); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := b.SetItemQuantity(1, dec("0")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	// item deleted from inventory after it was staged
	b.Refresh([]InventoryItem{itemA})
	if err := b.SetItemQuantity(1, dec("2")); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	b := NewBuilder([]InventoryItem{itemA, itemB})
	_ = b.AddOrMergeItem(itemA.ID, dec("1"))
	_ = b.AddOrMergeItem(itemB.ID, dec("1"))

	if err := b.RemoveItem(0); err != nil {
		t.Fatal(err)
	}
	items := b.Draft().Items
	if len(items) != 1 || items[0].InventoryItemID != itemB.ID {
		t.Fatalf("unexpected items after remove: %+v", items)
	}
	if err := b.RemoveItem(1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	avail := b.Availability()
	if !avail[itemA.ID].Equal(dec("10")) || !avail[itemB.ID].Equal(dec("4")) {
		t.Errorf("availability = %v", avail)
	}
}

func TestDraftIsCopied(t *testing.T) {
	b := NewBuilder([]InventoryItem{itemA})
	_ = b.AddOrMergeItem(itemA.ID, dec("1"))

	snapshot := b.Draft()
	snapshot.Items[0].Quantity = dec("99")

	if got := b.Draft().Items[0].Quantity; !got.Equal(dec("1")) {
		t.Errorf("builder state leaked through Draft(): %s", got)
	}
}

func TestComputeTotals(t *testing.T) {
	stock := InventoryItem{ID: uuid.New(), Name: "Oil", Quantity: dec("100"), PricePerUnit: dec("1"), Unit: "l"}
	b := NewBuilder([]InventoryItem{stock})

	empty := b.ComputeTotals()
	if !empty.Subtotal.IsZero() || !empty.Total.IsZero() {
		t.Errorf("empty draft totals = %+v", empty)
	}

	if err := b.AddOrMergeItem(stock.ID, dec("100")); err != nil {
		t.Fatal(err)
	}
	if err := b.SetDiscount(dec("10")); err != nil {
		t.Fatal(err)
	}
	if err := b.SetTaxPercent(dec("10")); err != nil {
		t.Fatal(err)
	}

	got := b.ComputeTotals()
	if !got.Subtotal.Equal(dec("100")) {
		t.Errorf("subtotal = %s", got.Subtotal)
	}
	if !got.TaxAmount.Equal(dec("9")) {
		t.Errorf("tax = %s, want 9", got.TaxAmount)
	}
	if !got.Total.Equal(dec("99")) {
		t.Errorf("total = %s, want 99", got.Total)
	}

	if err := b.SetDiscount(dec("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative discount, got %v", err)
	}
	if err := b.SetTaxPercent(dec("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative tax, got %v", err)
	}
}

func TestValidateForCommit(t *testing.T) {
	staged := func() *Builder {
		b := NewBuilder([]InventoryItem{itemA})
		if err := b.AddOrMergeItem(itemA.ID, dec("2")); err != nil {
			t.Fatal(err)
		}
		return b
	}

	t.Run("empty items reported before buyer", func(t *testing.T) {
		b := NewBuilder([]InventoryItem{itemA})
		if err := b.ValidateForCommit(); !errors.Is(err, ErrEmptyItemList) {
			t.Fatalf("expected ErrEmptyItemList, got %v", err)
		}
	})

	t.Run("missing fields in order", func(t *testing.T) {
		cases := []struct {
			buyer BuyerDetails
			field string
		}{
			{BuyerDetails{}, "name"},
			{BuyerDetails{Name: "A"}, "address"},
			{BuyerDetails{Name: "A", Address: "B", Phone: "   "}, "phone"},
		}
		for _, c := range cases {
			b := staged()
			b.SetBuyer(c.buyer)
			var fieldErr *MissingBuyerFieldError
			err := b.ValidateForCommit()
			if !errors.As(err, &fieldErr) || fieldErr.Field != c.field {
				t.Errorf("expected missing %s, got %v", c.field, err)
			}
			if !errors.Is(err, ErrMissingBuyerField) {
				t.Errorf("error should match ErrMissingBuyerField")
			}
		}
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		b := staged()
		b.SetBuyer(validBuyer())
		_ = b.SetDiscount(dec("10.01"))
		if err := b.ValidateForCommit(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("tampered line total", func(t *testing.T) {
		d := staged().Draft()
		d.Buyer = validBuyer()
		d.Items[0].Total = dec("1")
		if err := d.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		b := staged()
		b.SetBuyer(validBuyer())
		b.SetNotes("deliver before noon")
		if err := b.ValidateForCommit(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestStockLedger(t *testing.T) {
	staged := []InvoiceItem{
		{InventoryItemID: itemA.ID, Quantity: dec("3")},
		{InventoryItemID: itemB.ID, Quantity: dec("1")},
		{InventoryItemID: itemA.ID, Quantity: dec("2")},
	}
	l := NewStockLedger([]InventoryItem{itemA, itemB}, staged)

	if got, _ := l.Available(itemA.ID); !got.Equal(dec("5")) {
		t.Errorf("available A = %s, want 5", got)
	}
	if got, _ := l.AvailableExcluding(itemA.ID, 0); !got.Equal(dec("8")) {
		t.Errorf("available A excluding line 0 = %s, want 8", got)
	}
	if _, err := l.Available(uuid.New()); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if item, ok := l.Lookup(itemB.ID); !ok || item.Name != "Flour" {
		t.Errorf("lookup B = %+v, %v", item, ok)
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		count int64
		year  int
		want  string
	}{
		{0, 2025, "INV-2025-0001"},
		{3, 2025, "INV-2025-0004"},
		{9998, 2026, "INV-2026-9999"},
		{9999, 2026, "INV-2026-10000"},
	}
	for _, tt := range tests {
		if got := NextInvoiceNumber(tt.count, tt.year); got != tt.want {
			t.Errorf("NextInvoiceNumber(%d, %d) = %q, want %q", tt.count, tt.year, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"draft", "sent", "paid"} {
		if got, err := ParseStatus(s); err != nil || string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("void"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

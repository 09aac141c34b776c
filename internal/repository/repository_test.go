package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/model"
	"invoicedesk/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestInvoiceRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	original := billing.Invoice{
		InvoiceNumber: "INV-2025-0001",
		Date:          time.Date(2025, 3, 14, 9, 30, 15, 123456000, time.UTC),
		Buyer: billing.BuyerDetails{
			Name:    "Ali Traders",
			Address: "12 Mall Road, Lahore",
			Phone:   "+92 300 0000000",
			Email:   "ali@example.com",
			GSTIN:   "GST-991",
		},
		Items: []billing.InvoiceItem{
			{InventoryItemID: uuid.New(), Name: "Rice", Quantity: dec("2.125"), PricePerUnit: dec("0.01"), Unit: "kg", Total: dec("0.02125")},
			{InventoryItemID: uuid.New(), Name: "Lens", Quantity: dec("3"), PricePerUnit: dec("1234567.123456789"), Unit: "pcs", Total: dec("3703701.370370367")},
		},
		Subtotal:   dec("3703701.391620367"),
		Discount:   dec("3.7"),
		TaxPercent: dec("17.5"),
		Tax:        dec("648147.096033564225"),
		Total:      dec("4351844.787653931225"),
		Notes:      "net 30",
		Status:     billing.StatusDraft,
	}

	inv := original
	if err := repo.CreateInvoice(ctx, owner, &inv); err != nil {
		t.Fatalf("create header: %v", err)
	}
	if inv.ID == uuid.Nil {
		t.Fatal("header id not assigned")
	}
	if err := repo.CreateInvoiceItems(ctx, inv.ID, inv.Items); err != nil {
		t.Fatalf("create items: %v", err)
	}

	got, err := repo.FindByID(ctx, owner, inv.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if got.ID != inv.ID || got.InvoiceNumber != original.InvoiceNumber || got.Buyer != original.Buyer ||
		got.Notes != original.Notes || got.Status != original.Status {
		t.Errorf("header mismatch:\n got %+v\nwant %+v", got, original)
	}
	if !got.Date.Equal(original.Date) {
		t.Errorf("date = %v, want %v", got.Date, original.Date)
	}
	amounts := []struct {
		name      string
		got, want decimal.Decimal
	}{
		{"subtotal", got.Subtotal, original.Subtotal},
		{"discount", got.Discount, original.Discount},
		{"tax percent", got.TaxPercent, original.TaxPercent},
		{"tax", got.Tax, original.Tax},
		{"total", got.Total, original.Total},
	}
	for _, a := range amounts {
		if a.got.String() != a.want.String() {
			t.Errorf("%s = %s, want %s", a.name, a.got, a.want)
		}
	}

	if len(got.Items) != len(original.Items) {
		t.Fatalf("items = %d, want %d", len(got.Items), len(original.Items))
	}
	for i, want := range original.Items {
		g := got.Items[i]
		if g.InventoryItemID != want.InventoryItemID || g.Name != want.Name || g.Unit != want.Unit ||
			!g.Quantity.Equal(want.Quantity) || !g.PricePerUnit.Equal(want.PricePerUnit) || !g.Total.Equal(want.Total) {
			t.Errorf("item %d = %+v, want %+v", i, g, want)
		}
	}

	if _, err := repo.FindByID(ctx, uuid.New(), inv.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner should not see the invoice, got %v", err)
	}
}

func TestInvoiceNumberIsUniquePerOwner(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	header := func() *billing.Invoice {
		return &billing.Invoice{InvoiceNumber: "INV-2025-0001", Date: time.Now().UTC(), Status: billing.StatusDraft,
			Buyer: billing.BuyerDetails{Name: "A", Address: "B", Phone: "C"}}
	}

	if err := repo.CreateInvoice(ctx, owner, header()); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateInvoice(ctx, owner, header()); err == nil {
		t.Fatal("duplicate number for the same owner must fail")
	}
	if err := repo.CreateInvoice(ctx, uuid.New(), header()); err != nil {
		t.Fatalf("another owner may reuse the number: %v", err)
	}

	count, err := repo.CountInvoices(ctx, owner)
	if err != nil || count != 1 {
		t.Errorf("count = %d, %v", count, err)
	}
}

func TestInvoiceListAndStatus(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, number := range []string{"INV-2025-0001", "INV-2025-0002", "INV-2025-0003"} {
		inv := &billing.Invoice{InvoiceNumber: number, Date: base.Add(time.Duration(i) * time.Hour), Status: billing.StatusDraft,
			Buyer: billing.BuyerDetails{Name: "A", Address: "B", Phone: "C"}, Total: dec("10")}
		if err := repo.CreateInvoice(ctx, owner, inv); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, inv.ID)
	}

	if err := repo.UpdateStatus(ctx, owner, ids[0], billing.StatusPaid); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.UpdateStatus(ctx, owner, uuid.New(), billing.StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, total, err := repo.List(ctx, owner, "", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(all) != 3 || all[0].InvoiceNumber != "INV-2025-0003" {
		t.Errorf("list = %d/%d, first %q", len(all), total, all[0].InvoiceNumber)
	}

	paid, total, err := repo.List(ctx, owner, "paid", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(paid) != 1 || paid[0].ID != ids[0] {
		t.Errorf("paid = %+v", paid)
	}

	byNumber, err := repo.FindByNumber(ctx, owner, "INV-2025-0002")
	if err != nil || byNumber.ID != ids[1] {
		t.Errorf("find by number = %v, %v", byNumber.ID, err)
	}
}

func TestUnknownStatusIsRejectedOnRead(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	inv := &billing.Invoice{InvoiceNumber: "INV-2025-0001", Date: time.Now().UTC(), Status: billing.StatusDraft,
		Buyer: billing.BuyerDetails{Name: "A", Address: "B", Phone: "C"}}
	if err := repo.CreateInvoice(ctx, owner, inv); err != nil {
		t.Fatal(err)
	}
	if err := db.Model(&model.Invoice{}).Where("id = ?", inv.ID).Update("status", "void").Error; err != nil {
		t.Fatal(err)
	}

	if _, err := repo.FindByID(ctx, owner, inv.ID); !errors.Is(err, billing.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestInventoryDecrement(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	owner := uuid.New()
	invoiceID := uuid.New()

	item := billing.InventoryItem{Name: "Rice", Quantity: dec("10"), PricePerUnit: dec("5"), Unit: "kg"}
	if err := repo.Create(ctx, owner, &item); err != nil {
		t.Fatal(err)
	}

	adj, err := repo.Decrement(ctx, owner, item.ID, dec("4"), invoiceID)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !adj.Before.Equal(dec("10")) || !adj.After.Equal(dec("6")) || adj.Clamped() {
		t.Errorf("adjustment = %+v", adj)
	}

	adj, err = repo.Decrement(ctx, owner, item.ID, dec("7.5"), invoiceID)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !adj.After.IsZero() || !adj.Clamped() {
		t.Errorf("expected clamp to zero, got %+v", adj)
	}

	stored, err := repo.FindByID(ctx, owner, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Quantity.IsZero() {
		t.Errorf("stored quantity = %s, want 0", stored.Quantity)
	}

	if _, err := repo.Decrement(ctx, owner, uuid.New(), dec("1"), invoiceID); !errors.Is(err, billing.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := repo.Decrement(ctx, uuid.New(), item.ID, dec("1"), invoiceID); !errors.Is(err, billing.ErrItemNotFound) {
		t.Errorf("other owner: expected ErrItemNotFound, got %v", err)
	}

	movements, total, err := repo.ListMovements(ctx, owner, item.ID, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("movements = %d, want 3 (opening stock and two sales)", total)
	}
	var out int
	for _, m := range movements {
		if m.MovementType == model.MovementOut {
			out++
			if m.InvoiceID == nil || *m.InvoiceID != invoiceID {
				t.Errorf("movement not linked to invoice: %+v", m)
			}
		}
	}
	if out != 2 {
		t.Errorf("OUT movements = %d", out)
	}
}

func TestInventoryUpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	item := billing.InventoryItem{Name: "Oil", Description: "1l bottles", Quantity: dec("12"), PricePerUnit: dec("3.5"), Unit: "pcs"}
	if err := repo.Create(ctx, owner, &item); err != nil {
		t.Fatal(err)
	}

	updated, err := repo.Update(ctx, owner, item.ID, InventoryPatch{Quantity: decPtr("20"), Name: strPtr("Olive oil")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Olive oil" || !updated.Quantity.Equal(dec("20")) {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Description != "1l bottles" || !updated.PricePerUnit.Equal(dec("3.5")) {
		t.Errorf("absent fields changed: %+v", updated)
	}

	_, total, err := repo.ListMovements(ctx, owner, item.ID, 1, 10)
	if err != nil || total != 2 {
		t.Errorf("movements after adjustment = %d, %v", total, err)
	}

	if _, err := repo.Update(ctx, uuid.New(), item.ID, InventoryPatch{Name: strPtr("x")}); !errors.Is(err, billing.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}

	if err := repo.Delete(ctx, owner, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, owner, item.ID); !errors.Is(err, billing.ErrItemNotFound) {
		t.Errorf("second delete: expected ErrItemNotFound, got %v", err)
	}
	items, err := repo.List(ctx, owner)
	if err != nil || len(items) != 0 {
		t.Errorf("list after delete = %v, %v", items, err)
	}
}

func TestPatchColumns(t *testing.T) {
	if cols := (InventoryPatch{}).Columns(); len(cols) != 0 {
		t.Errorf("empty patch columns = %v", cols)
	}
	p := InventoryPatch{Name: strPtr("A"), Description: strPtr(""), Quantity: decPtr("1"), PricePerUnit: decPtr("2"), Unit: strPtr("kg")}
	cols := p.Columns()
	for _, c := range []string{"name", "description", "quantity", "price_per_unit", "unit"} {
		if _, ok := cols[c]; !ok {
			t.Errorf("missing column %s", c)
		}
	}
	if cols["description"] != "" {
		t.Errorf("explicit empty string must be kept")
	}

	pp := ProfilePatch{GSTIN: strPtr("G1"), Logo: strPtr("data:image/png;base64,AA==")}
	if got := pp.Columns(); len(got) != 2 || got["gstin"] != "G1" {
		t.Errorf("profile columns = %v", got)
	}
	applied := pp.Apply(billing.DefaultBusinessProfile())
	if applied.GSTIN != "G1" || applied.Name != "Your Business Name" {
		t.Errorf("apply = %+v", applied)
	}
}

func TestProfileRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	if _, err := repo.Get(ctx, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, owner, ProfilePatch{Name: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update before create: expected ErrNotFound, got %v", err)
	}
	if err := repo.Create(ctx, owner, billing.DefaultBusinessProfile()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, owner, ProfilePatch{Name: strPtr("Karachi Wholesale")}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Karachi Wholesale" || got.Email != "contact@yourbusiness.com" {
		t.Errorf("profile = %+v", got)
	}
}

func TestTransactionManagerNestsAndRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	tm := NewTransactionManager(db)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	errBoom := errors.New("boom")
	if _, ok := TxFrom(ctx); ok {
		t.Fatal("plain context reports a transaction")
	}
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, ok := TxFrom(txCtx); !ok {
			t.Error("transaction context carries no transaction")
		}
		item := billing.InventoryItem{Name: "Tea", Quantity: dec("5"), PricePerUnit: dec("1"), Unit: "box"}
		if err := repo.Create(txCtx, owner, &item); err != nil {
			return err
		}
		inner := tm.RunInTx(txCtx, func(innerCtx context.Context) error {
			_, err := repo.Decrement(innerCtx, owner, item.ID, dec("2"), uuid.New())
			return err
		})
		if inner != nil {
			return inner
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	items, err := repo.List(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("rolled back transaction left %d items", len(items))
	}
}

func TestStatistics(t *testing.T) {
	db := testutil.NewDB(t)
	inventory := NewInventoryRepository(db)
	invoices := NewInvoiceRepository(db)
	stats := NewStatisticsRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	for _, it := range []billing.InventoryItem{
		{Name: "Rice", Quantity: dec("10"), PricePerUnit: dec("5"), Unit: "kg"},
		{Name: "Salt", Quantity: dec("2"), PricePerUnit: dec("1.5"), Unit: "kg"},
	} {
		it := it
		if err := inventory.Create(ctx, owner, &it); err != nil {
			t.Fatal(err)
		}
	}
	for i, total := range []string{"100", "50.5"} {
		inv := &billing.Invoice{InvoiceNumber: numberFor(i), Date: time.Now().UTC(), Status: billing.StatusSent,
			Buyer: billing.BuyerDetails{Name: "A", Address: "B", Phone: "C"}, Total: dec(total)}
		if err := invoices.CreateInvoice(ctx, owner, inv); err != nil {
			t.Fatal(err)
		}
	}

	count, value, err := stats.InventorySummary(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 || !value.Equal(dec("53")) {
		t.Errorf("inventory summary = %d, %s", count, value)
	}

	n, revenue, err := stats.InvoiceSummary(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || !revenue.Equal(dec("150.5")) {
		t.Errorf("invoice summary = %d, %s", n, revenue)
	}

	low, err := stats.LowStock(ctx, owner, dec("5"))
	if err != nil {
		t.Fatal(err)
	}
	if len(low) != 1 || low[0].Name != "Salt" {
		t.Errorf("low stock = %+v", low)
	}

	recent, err := stats.RecentInvoices(ctx, owner, 5)
	if err != nil || len(recent) != 2 {
		t.Errorf("recent = %+v, %v", recent, err)
	}

	emptyCount, emptyValue, err := stats.InventorySummary(ctx, uuid.New())
	if err != nil || emptyCount != 0 || !emptyValue.IsZero() {
		t.Errorf("empty summary = %d, %s, %v", emptyCount, emptyValue, err)
	}
}

func numberFor(i int) string {
	return billing.NextInvoiceNumber(int64(i), 2025)
}

func TestRevenueByPeriod(t *testing.T) {
	db := testutil.NewDB(t)
	invoices := NewInvoiceRepository(db)
	revenue := NewRevenueRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	seed := []struct {
		date   time.Time
		total  string
		tax    string
		status billing.Status
	}{
		{time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC), "100", "10", billing.StatusPaid},
		{time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC), "50", "0", billing.StatusSent},
		{time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), "25.5", "2.5", billing.StatusPaid},
		{time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC), "999", "0", billing.StatusPaid},
	}
	for i, s := range seed {
		inv := &billing.Invoice{InvoiceNumber: numberFor(i), Date: s.date, Status: s.status,
			Buyer: billing.BuyerDetails{Name: "A", Address: "B", Phone: "C"}, Total: dec(s.total), Tax: dec(s.tax)}
		if err := invoices.CreateInvoice(ctx, owner, inv); err != nil {
			t.Fatal(err)
		}
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	rows, err := revenue.RevenueByPeriod(ctx, owner, GroupByMonth, from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d periods, want 2: %+v", len(rows), rows)
	}
	jan, mar := rows[0], rows[1]
	if jan.Period != "2025-01-01" || jan.Invoices != 2 || !jan.TotalRevenue.Equal(dec("150")) || !jan.TotalPaid.Equal(dec("100")) || !jan.TotalTax.Equal(dec("10")) {
		t.Errorf("january = %+v", jan)
	}
	if mar.Period != "2025-03-01" || !mar.TotalRevenue.Equal(dec("25.5")) {
		t.Errorf("march = %+v", mar)
	}

	rows, err = revenue.RevenueByPeriod(ctx, owner, GroupByYear, from, to)
	if err != nil || len(rows) != 1 || !rows[0].TotalRevenue.Equal(dec("175.5")) {
		t.Errorf("yearly = %+v, %v", rows, err)
	}

	rows, err = revenue.RevenueByPeriod(ctx, uuid.New(), GroupByMonth, from, to)
	if err != nil || len(rows) != 0 {
		t.Errorf("other owner = %+v, %v", rows, err)
	}
}

func TestPeriodStart(t *testing.T) {
	// Thursday
	ts := time.Date(2025, 8, 14, 23, 30, 0, 0, time.UTC)
	tests := []struct {
		groupBy string
		want    string
	}{
		{GroupByDay, "2025-08-14"},
		{GroupByWeek, "2025-08-11"},
		{GroupByMonth, "2025-08-01"},
		{GroupByQuarter, "2025-07-01"},
		{GroupByYear, "2025-01-01"},
		{"fortnight", "2025-08-01"},
	}
	for _, tt := range tests {
		if got := PeriodStart(ts, tt.groupBy).Format("2006-01-02"); got != tt.want {
			t.Errorf("PeriodStart(%s) = %s, want %s", tt.groupBy, got, tt.want)
		}
	}

	// Sunday belongs to the week that started on Monday
	sunday := time.Date(2025, 8, 17, 8, 0, 0, 0, time.UTC)
	if got := PeriodStart(sunday, GroupByWeek).Format("2006-01-02"); got != "2025-08-11" {
		t.Errorf("sunday week = %s", got)
	}
}

func TestInventorySearch(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewInventoryRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	for _, name := range []string{"Basmati Rice", "Brown rice", "Salt", "100% Cotton", "Sugar_cane"} {
		item := billing.InventoryItem{Name: name, Quantity: dec("1"), PricePerUnit: dec("1"), Unit: "kg"}
		if err := repo.Create(ctx, owner, &item); err != nil {
			t.Fatal(err)
		}
	}
	other := billing.InventoryItem{Name: "Rice", Quantity: dec("1"), PricePerUnit: dec("1"), Unit: "kg"}
	if err := repo.Create(ctx, uuid.New(), &other); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"RICE", []string{"Basmati Rice", "Brown rice"}},
		{"salt", []string{"Salt"}},
		{"%", []string{"100% Cotton"}},
		{"_", []string{"Sugar_cane"}},
		{"pepper", nil},
		{"", []string{"100% Cotton", "Basmati Rice", "Brown rice", "Salt", "Sugar_cane"}},
	}
	for _, tt := range tests {
		items, err := repo.Search(ctx, owner, tt.query)
		if err != nil {
			t.Fatalf("search %q: %v", tt.query, err)
		}
		got := make(map[string]bool, len(items))
		for _, it := range items {
			got[it.Name] = true
		}
		if len(items) != len(tt.want) {
			t.Errorf("search %q = %d items, want %v", tt.query, len(items), tt.want)
			continue
		}
		for _, name := range tt.want {
			if !got[name] {
				t.Errorf("search %q: missing %s", tt.query, name)
			}
		}
	}
}

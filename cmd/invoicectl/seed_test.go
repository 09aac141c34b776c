package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"invoicedesk/internal/money"
)

func TestParseItemsCSV(t *testing.T) {
	in := `name, quantity, price_per_unit, unit
Widget, 10, 5.00, pcs
"Bolt, large", 2.5, 0.1, kg
`
	items, err := parseItemsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[1].Name != "Bolt, large" || items[1].Quantity.String() != "2.5" || items[1].Unit != "kg" {
		t.Errorf("unexpected item %+v", items[1])
	}
	if items[0].Description != "" {
		t.Errorf("description = %q", items[0].Description)
	}
}

func TestParseItemsCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
		msg     string
	}{
		{name: "empty", in: "", msg: "file is empty"},
		{name: "missing column", in: "name,quantity\nA,1\n", msg: `missing "price_per_unit" column`},
		{name: "negative quantity", in: "name,quantity,price_per_unit\nA,-1,2\n", wantErr: money.ErrInvalidAmount},
		{name: "bad price", in: "name,quantity,price_per_unit\nA,1,abc\n", wantErr: money.ErrInvalidAmount},
		{name: "blank name", in: "name,quantity,price_per_unit\n ,1,2\n", msg: "row 2: name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseItemsCSV(strings.NewReader(tt.in))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("error = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestNumberCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"number", "--count", "41", "--year", "2025"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "INV-2025-0042" {
		t.Errorf("number = %q", got)
	}
}

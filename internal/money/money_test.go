package money

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		price    string
		want     string
		wantErr  error
	}{
		{name: "whole units", quantity: "4", price: "5", want: "20"},
		{name: "fractional quantity", quantity: "2.5", price: "0.1", want: "0.25"},
		{name: "free item", quantity: "3", price: "0", want: "0"},
		{name: "zero quantity", quantity: "0", price: "5", wantErr: ErrInvalidAmount},
		{name: "negative quantity", quantity: "-1", price: "5", wantErr: ErrInvalidAmount},
		{name: "negative price", quantity: "1", price: "-0.01", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LineTotal(d(tt.quantity), d(tt.price))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("LineTotal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSubtotalEmpty(t *testing.T) {
	got, err := Subtotal(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("Subtotal(nil) = %s, want 0", got)
	}
}

// Quantities are thousandths and prices are cents, so the exact product fits in
// an int64 counted in 1e-5 units.
func TestSubtotalIsExactSumOfLineTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(60)
		lines := make([]Line, 0, n)
		var expected int64
		for i := 0; i < n; i++ {
			q := int64(1 + rng.Intn(100000))
			p := int64(rng.Intn(1000000))
			expected += q * p
			lines = append(lines, Line{
				Quantity:     decimal.New(q, -3),
				PricePerUnit: decimal.New(p, -2),
			})

			total, err := LineTotal(lines[i].Quantity, lines[i].PricePerUnit)
			if err != nil {
				t.Fatalf("round %d line %d: %v", round, i, err)
			}
			if !total.Equal(decimal.New(q*p, -5)) {
				t.Fatalf("round %d line %d: total %s, want %s", round, i, total, decimal.New(q*p, -5))
			}
		}

		got, err := Subtotal(lines)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if !got.Equal(decimal.New(expected, -5)) {
			t.Fatalf("round %d: subtotal %s, want %s", round, got, decimal.New(expected, -5))
		}
	}
}

func TestSubtotalRejectsInvalidLine(t *testing.T) {
	_, err := Subtotal([]Line{
		{Quantity: d("1"), PricePerUnit: d("2")},
		{Quantity: d("0"), PricePerUnit: d("2")},
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTaxAmount(t *testing.T) {
	got, err := TaxAmount(d("90"), d("10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d("9")) {
		t.Errorf("TaxAmount = %s, want 9", got)
	}

	got, err = TaxAmount(d("33.33"), d("17.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d("5.832750")) {
		t.Errorf("TaxAmount = %s, want 5.83275", got)
	}

	got, err = TaxAmount(d("100"), decimal.Zero)
	if err != nil || !got.IsZero() {
		t.Errorf("zero percent: got %s, %v", got, err)
	}

	if _, err := TaxAmount(d("100"), d("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative percent, got %v", err)
	}
}

func TestGrandTotal(t *testing.T) {
	if got := GrandTotal(d("100"), d("10"), d("9")); !got.Equal(d("99")) {
		t.Errorf("GrandTotal = %s, want 99", got)
	}
	if got := GrandTotal(d("10"), d("25"), d("0")); !got.Equal(d("-15")) {
		t.Errorf("GrandTotal must not clamp, got %s", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "0"},
		{in: " 12.50 ", want: "12.5"},
		{in: "-3", want: "-3"},
		{in: "abc", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("Parse(%q): expected ErrInvalidAmount, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.in, err)
			continue
		}
		if !got.Equal(d(tt.want)) {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseNonNegative("-0.5"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("ParseNonNegative: expected ErrInvalidAmount, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(d("40")); got != "40.00" {
		t.Errorf("Format = %q", got)
	}
	if got := Format(d("5.832750")); got != "5.83" {
		t.Errorf("Format = %q", got)
	}
	if got := FormatQuantity(d("8.000")); got != "8" {
		t.Errorf("FormatQuantity = %q", got)
	}
}

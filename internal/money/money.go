// Package money holds the exact decimal arithmetic used for invoice lines and totals.
// Values are never rounded here except in Format, which is for display only.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for malformed, negative or otherwise unusable amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// Line is the minimal shape needed to price an invoice line.
type Line struct {
	Quantity     decimal.Decimal
	PricePerUnit decimal.Decimal
}

// LineTotal returns quantity * pricePerUnit. Quantity must be positive and the
// price must not be negative.
func LineTotal(quantity, pricePerUnit decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidAmount)
	}
	if pricePerUnit.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price per unit cannot be negative", ErrInvalidAmount)
	}
	return quantity.Mul(pricePerUnit), nil
}

// Subtotal sums the line totals. An empty slice yields zero.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, l := range lines {
		total, err := LineTotal(l.Quantity, l.PricePerUnit)
		if err != nil {
			return decimal.Zero, fmt.Errorf("line %d: %w", i+1, err)
		}
		sum = sum.Add(total)
	}
	return sum, nil
}

// TaxAmount returns base * percent / 100. The division is a decimal shift, so it
// is exact.
func TaxAmount(base, percent decimal.Decimal) (decimal.Decimal, error) {
	if percent.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: tax percent cannot be negative", ErrInvalidAmount)
	}
	return base.Mul(percent).Shift(-2), nil
}

// GrandTotal returns subtotal - discount + tax. The result is not clamped; a
// negative total has to be rejected by the caller.
func GrandTotal(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax)
}

// Parse reads a user supplied amount. Empty input means zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParseNonNegative is Parse with a lower bound of zero.
func ParseNonNegative(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", ErrInvalidAmount, d.String())
	}
	return d, nil
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatQuantity trims trailing zeros so whole quantities print as integers.
func FormatQuantity(d decimal.Decimal) string {
	return d.String()
}

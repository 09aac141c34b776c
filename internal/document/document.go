// Package document turns a committed invoice into a printable view with every
// value already formatted.
package document

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/money"

	"github.com/shopspring/decimal"
)

const DateLayout = "Jan 02, 2006"

//go:embed invoice.html.tmpl
var templates embed.FS

var invoiceTmpl = template.Must(template.ParseFS(templates, "invoice.html.tmpl"))

type Options struct {
	Currency string
	Location *time.Location
}

type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
	Logo    string `json:"logo,omitempty"`
}

type Line struct {
	No       int    `json:"no"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// Row is one entry of the totals block. Discount and tax rows only appear
// when they are greater than zero.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Grand bool   `json:"grand,omitempty"`
}

type View struct {
	InvoiceNumber string `json:"invoice_number"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	Seller        Party  `json:"seller"`
	Buyer         Party  `json:"buyer"`
	Lines         []Line `json:"lines"`
	Totals        []Row  `json:"totals"`
	Notes         string `json:"notes,omitempty"`
}

func Build(inv billing.Invoice, profile billing.BusinessProfile, opts Options) View {
	if opts.Currency == "" {
		opts.Currency = "PKR"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	amount := func(d decimal.Decimal) string {
		return fmt.Sprintf("%s %s", opts.Currency, money.Format(d))
	}

	v := View{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date.In(loc).Format(DateLayout),
		Status:        string(inv.Status),
		Seller: Party{
			Name:    profile.Name,
			Address: profile.Address,
			Phone:   profile.Phone,
			Email:   profile.Email,
			GSTIN:   profile.GSTIN,
			Logo:    profile.Logo,
		},
		Buyer: Party{
			Name:    inv.Buyer.Name,
			Address: inv.Buyer.Address,
			Phone:   inv.Buyer.Phone,
			Email:   inv.Buyer.Email,
			GSTIN:   inv.Buyer.GSTIN,
		},
		Notes: inv.Notes,
	}

	for i, it := range inv.Items {
		qty := money.FormatQuantity(it.Quantity)
		if it.Unit != "" {
			qty += " " + it.Unit
		}
		v.Lines = append(v.Lines, Line{
			No:       i + 1,
			Name:     it.Name,
			Quantity: qty,
			Price:    amount(it.PricePerUnit),
			Total:    amount(it.Total),
		})
	}

	v.Totals = append(v.Totals, Row{Label: "Subtotal", Value: amount(inv.Subtotal)})
	if inv.Discount.IsPositive() {
		v.Totals = append(v.Totals, Row{Label: "Discount", Value: "-" + amount(inv.Discount)})
	}
	if inv.Tax.IsPositive() {
		v.Totals = append(v.Totals, Row{
			Label: fmt.Sprintf("Tax (%s%%)", inv.TaxPercent.String()),
			Value: amount(inv.Tax),
		})
	}
	v.Totals = append(v.Totals, Row{Label: "Total", Value: amount(inv.Total), Grand: true})
	return v
}

// RenderHTML writes a self-contained printable page.
func RenderHTML(w io.Writer, v View) error {
	if err := invoiceTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render invoice %s: %w", v.InvoiceNumber, err)
	}
	return nil
}

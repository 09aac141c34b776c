package billing

import "fmt"

// NextInvoiceNumber formats INV-{year}-{n} where n is existingCount+1 padded to
// four digits. Counts past 9999 simply widen the number.
//
// The count is taken over every invoice the owner can see, so deleting invoices
// can hand out a number twice. The store's unique index on (owner, number)
// turns that into a failed commit rather than a duplicate.
func NextInvoiceNumber(existingCount int64, year int) string {
	return fmt.Sprintf("INV-%d-%04d", year, existingCount+1)
}

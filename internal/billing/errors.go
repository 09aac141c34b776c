package billing

import (
	"errors"
	"fmt"

	"invoicedesk/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for malformed or negative numeric input.
	ErrInvalidAmount = money.ErrInvalidAmount

	// ErrItemNotFound is returned when a referenced inventory item does not exist.
	ErrItemNotFound = errors.New("inventory item not found")

	// ErrInsufficientStock is returned when a staged quantity would exceed stock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrIndexOutOfRange is returned for an invalid line index.
	ErrIndexOutOfRange = errors.New("line index out of range")

	// ErrMissingBuyerField is returned when a required buyer field is empty.
	ErrMissingBuyerField = errors.New("missing buyer details")

	// ErrEmptyItemList is returned when committing a draft without items.
	ErrEmptyItemList = errors.New("invoice has no items")

	// ErrPersistence is returned when the store rejects a read or write.
	ErrPersistence = errors.New("persistence error")

	// ErrAuthRequired is returned when there is no current user.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidStatus is returned for a status outside draft, sent and paid.
	ErrInvalidStatus = errors.New("invalid invoice status")
)

// InsufficientStockError carries what is still available so it can be shown to
// the user.
type InsufficientStockError struct {
	ItemID    uuid.UUID
	Unit      string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %s %s available", money.FormatQuantity(e.Available), e.Unit)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// MissingBuyerFieldError names the empty buyer field.
type MissingBuyerFieldError struct {
	Field string
}

func (e *MissingBuyerFieldError) Error() string {
	return fmt.Sprintf("buyer %s is required", e.Field)
}

func (e *MissingBuyerFieldError) Unwrap() error {
	return ErrMissingBuyerField
}

// CommitStep identifies a stage of the commit pipeline.
type CommitStep string

const (
	StepValidate  CommitStep = "validate"
	StepNumber    CommitStep = "number"
	StepHeader    CommitStep = "header"
	StepItems     CommitStep = "items"
	StepInventory CommitStep = "inventory"
	// StepTransaction is a failure to begin or commit the atomic-mode
	// transaction itself.
	StepTransaction CommitStep = "transaction"
)

// CommitError reports which step of a commit failed. InvoiceID is set once the
// header exists, so a partially created invoice can still be found.
type CommitError struct {
	Step          CommitStep
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Err           error
}

func (e *CommitError) Error() string {
	if e.InvoiceID != uuid.Nil {
		return fmt.Sprintf("commit failed at %s step (invoice %s, id %s): %v", e.Step, e.InvoiceNumber, e.InvoiceID, e.Err)
	}
	return fmt.Sprintf("commit failed at %s step: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match every store-side commit failure.
func (e *CommitError) Is(target error) bool {
	return target == ErrPersistence && e.Step != StepValidate
}

// PartiallyCreated reports whether an invoice header was stored before the failure.
func (e *CommitError) PartiallyCreated() bool {
	return e.InvoiceID != uuid.Nil
}

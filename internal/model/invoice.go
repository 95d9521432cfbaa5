package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of a committed invoice.
type InvoiceStatus string

const (
	StatusPending   InvoiceStatus = "pending"
	StatusPaid      InvoiceStatus = "paid"
	StatusOverdue   InvoiceStatus = "overdue"
	StatusCancelled InvoiceStatus = "cancelled"
)

// LineItem is a single purchased line on a vendor invoice.
type LineItem struct {
	Name      string
	Category  string
	Quantity  decimal.Decimal
	Unit      string // "ud", "kg", "l", "h", ...
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal // Quantity * UnitPrice, set by normalize
}

// ConflictAudit records that a record was committed despite detected
// duplicates, and which historical records it collided with.
type ConflictAudit struct {
	Forced         bool
	ConflictingIDs []string
}

// InvoiceRecord is a vendor invoice in the ledger. A record is created only
// by a terminal commit of the reconciliation pipeline; status changes after
// that happen through explicit operations (mark-paid, cancel, overdue).
type InvoiceRecord struct {
	ID        string
	Number    string // "FAC-2025-001", assigned at commit
	Vendor    Vendor
	IssueDate time.Time
	DueDate   time.Time // zero = no due date

	LineItems []LineItem

	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal // fraction, e.g. 0.23
	TaxAmount decimal.Decimal
	Total     decimal.Decimal

	Status InvoiceStatus

	// VendorInvoiceNumber is the vendor-supplied reference. When present it
	// drives the exact-reference duplicate rule.
	VendorInvoiceNumber string

	SourceImage          string // path or ref of the captured document
	ExtractionConfidence decimal.Decimal

	Conflict *ConflictAudit // non-nil only on forced commits

	CreatedAt   time.Time
	EditedAt    time.Time
	PaymentDate time.Time
}

// Description returns the free-text description used for similarity
// matching: the line item names joined with ", ".
func (r InvoiceRecord) Description() string {
	names := make([]string, 0, len(r.LineItems))
	for _, item := range r.LineItems {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return strings.Join(names, ", ")
}

// SameVendor reports whether both records carry the same vendor identity.
// Identity is by vendor ID; records without one never match.
func (r InvoiceRecord) SameVendor(other InvoiceRecord) bool {
	return r.Vendor.ID != "" && r.Vendor.ID == other.Vendor.ID
}

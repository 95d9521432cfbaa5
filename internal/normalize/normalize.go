// Package normalize validates and completes a draft invoice before it may
// enter the reconciliation pipeline.
package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// DefaultTaxRate is applied when a draft carries no tax rate.
var DefaultTaxRate = decimal.NewFromFloat(0.23)

// Error describes a single validation failure on a draft.
type Error struct {
	Field       string
	Description string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Description)
}

// Normalize validates the draft and computes its derived amounts: line
// totals, subtotal, tax amount and total. Invalid line items are reported,
// never dropped. The returned error list is empty iff the draft may advance
// to scanning. Normalize is idempotent: applying it to its own output
// changes nothing.
func Normalize(draft model.InvoiceRecord) (model.InvoiceRecord, []Error) {
	var errs []Error

	rec := draft

	rec.Vendor.Name = strings.TrimSpace(rec.Vendor.Name)
	if rec.Vendor.Name == "" {
		errs = append(errs, Error{Field: "vendor", Description: "vendor name is required"})
	}

	if rec.IssueDate.IsZero() {
		errs = append(errs, Error{Field: "issue_date", Description: "issue date is required"})
	}

	if len(rec.LineItems) == 0 {
		errs = append(errs, Error{Field: "line_items", Description: "at least one line item is required"})
	}

	if rec.TaxRate.IsZero() {
		rec.TaxRate = DefaultTaxRate
	}

	items := make([]model.LineItem, len(rec.LineItems))
	subtotal := decimal.Zero
	for i, item := range rec.LineItems {
		item.Name = strings.TrimSpace(item.Name)
		if !item.Quantity.IsPositive() {
			errs = append(errs, Error{
				Field:       fmt.Sprintf("line_items[%d].quantity", i),
				Description: fmt.Sprintf("quantity must be positive, got %s", item.Quantity),
			})
		}
		if !item.UnitPrice.IsPositive() {
			errs = append(errs, Error{
				Field:       fmt.Sprintf("line_items[%d].unit_price", i),
				Description: fmt.Sprintf("unit price must be positive, got %s", item.UnitPrice),
			})
		}
		item.LineTotal = item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(item.LineTotal)
		items[i] = item
	}
	rec.LineItems = items

	rec.Subtotal = subtotal
	rec.TaxAmount = subtotal.Mul(rec.TaxRate).Round(2)
	rec.Total = rec.Subtotal.Add(rec.TaxAmount)

	rec.VendorInvoiceNumber = strings.TrimSpace(rec.VendorInvoiceNumber)

	if rec.Status == "" {
		rec.Status = model.StatusPending
	}

	return rec, errs
}

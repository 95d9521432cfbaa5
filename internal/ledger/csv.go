package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// InvoiceHeader is the CSV header for invoices.csv.
const InvoiceHeader = "id,number,vendor_id,vendor_name,vendor_tax_id,issue_date,due_date,subtotal,tax_rate,tax_amount,total,status,vendor_invoice_number,source_image,extraction_confidence,forced,conflicting_ids,created_at,edited_at,payment_date"

// ItemHeader is the CSV header for line-items.csv.
const ItemHeader = "invoice_id,name,category,quantity,unit,unit_price,line_total"

const (
	invNumFields = 20
	dateFormat   = "2006-01-02"

	colID        = 0
	colNumber    = 1
	colVendorID  = 2
	colVendor    = 3
	colTaxID     = 4
	colIssued    = 5
	colDue       = 6
	colSubtotal  = 7
	colTaxRate   = 8
	colTaxAmount = 9
	colTotal     = 10
	colStatus    = 11
	colVendorRef = 12
	colSource    = 13
	colConf      = 14
	colForced    = 15
	colConflicts = 16
	colCreated   = 17
	colEdited    = 18
	colPaid      = 19
)

const (
	itemNumFields = 7

	itemColInvoice = 0
	itemColName    = 1
	itemColCat     = 2
	itemColQty     = 3
	itemColUnit    = 4
	itemColPrice   = 5
	itemColTotal   = 6
)

// MarshalInvoice converts a record (without its line items) to a CSV row.
func MarshalInvoice(r model.InvoiceRecord) []string {
	row := make([]string, invNumFields)
	row[colID] = r.ID
	row[colNumber] = r.Number
	row[colVendorID] = r.Vendor.ID
	row[colVendor] = r.Vendor.Name
	row[colTaxID] = r.Vendor.TaxID
	row[colIssued] = formatDate(r.IssueDate)
	row[colDue] = formatDate(r.DueDate)
	row[colSubtotal] = r.Subtotal.StringFixed(2)
	row[colTaxRate] = r.TaxRate.String()
	row[colTaxAmount] = r.TaxAmount.StringFixed(2)
	row[colTotal] = r.Total.StringFixed(2)
	row[colStatus] = string(r.Status)
	row[colVendorRef] = r.VendorInvoiceNumber
	row[colSource] = r.SourceImage
	if !r.ExtractionConfidence.IsZero() {
		row[colConf] = r.ExtractionConfidence.String()
	}
	if r.Conflict != nil && r.Conflict.Forced {
		row[colForced] = "true"
		row[colConflicts] = strings.Join(r.Conflict.ConflictingIDs, ";")
	}
	row[colCreated] = formatTimestamp(r.CreatedAt)
	row[colEdited] = formatTimestamp(r.EditedAt)
	row[colPaid] = formatDate(r.PaymentDate)
	return row
}

// UnmarshalInvoice converts a CSV row to a record with no line items.
func UnmarshalInvoice(record []string) (model.InvoiceRecord, error) {
	if len(record) != invNumFields {
		return model.InvoiceRecord{}, fmt.Errorf("expected %d fields, got %d", invNumFields, len(record))
	}

	issued, err := parseDate(record[colIssued])
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing issue_date %q: %w", record[colIssued], err)
	}
	due, err := parseDate(record[colDue])
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing due_date %q: %w", record[colDue], err)
	}
	paid, err := parseDate(record[colPaid])
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing payment_date %q: %w", record[colPaid], err)
	}
	created, err := parseTimestamp(record[colCreated])
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing created_at %q: %w", record[colCreated], err)
	}
	edited, err := parseTimestamp(record[colEdited])
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing edited_at %q: %w", record[colEdited], err)
	}

	subtotal, err := parseDecimal(record[colSubtotal], "subtotal")
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	taxRate, err := parseDecimal(record[colTaxRate], "tax_rate")
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	taxAmount, err := parseDecimal(record[colTaxAmount], "tax_amount")
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	total, err := parseDecimal(record[colTotal], "total")
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	conf, err := parseDecimal(record[colConf], "extraction_confidence")
	if err != nil {
		return model.InvoiceRecord{}, err
	}

	var conflict *model.ConflictAudit
	if record[colForced] == "true" {
		conflict = &model.ConflictAudit{Forced: true}
		if record[colConflicts] != "" {
			conflict.ConflictingIDs = strings.Split(record[colConflicts], ";")
		}
	}

	return model.InvoiceRecord{
		ID:                   record[colID],
		Number:               record[colNumber],
		Vendor:               model.Vendor{ID: record[colVendorID], Name: record[colVendor], TaxID: record[colTaxID]},
		IssueDate:            issued,
		DueDate:              due,
		Subtotal:             subtotal,
		TaxRate:              taxRate,
		TaxAmount:            taxAmount,
		Total:                total,
		Status:               model.InvoiceStatus(record[colStatus]),
		VendorInvoiceNumber:  record[colVendorRef],
		SourceImage:          record[colSource],
		ExtractionConfidence: conf,
		Conflict:             conflict,
		CreatedAt:            created,
		EditedAt:             edited,
		PaymentDate:          paid,
	}, nil
}

// MarshalItem converts one line item to a CSV row keyed by invoice ID.
func MarshalItem(invoiceID string, item model.LineItem) []string {
	row := make([]string, itemNumFields)
	row[itemColInvoice] = invoiceID
	row[itemColName] = item.Name
	row[itemColCat] = item.Category
	row[itemColQty] = item.Quantity.String()
	row[itemColUnit] = item.Unit
	row[itemColPrice] = item.UnitPrice.StringFixed(2)
	row[itemColTotal] = item.LineTotal.StringFixed(2)
	return row
}

// UnmarshalItem converts a CSV row to a line item plus its invoice ID.
func UnmarshalItem(record []string) (string, model.LineItem, error) {
	if len(record) != itemNumFields {
		return "", model.LineItem{}, fmt.Errorf("expected %d fields, got %d", itemNumFields, len(record))
	}

	qty, err := parseDecimal(record[itemColQty], "quantity")
	if err != nil {
		return "", model.LineItem{}, err
	}
	price, err := parseDecimal(record[itemColPrice], "unit_price")
	if err != nil {
		return "", model.LineItem{}, err
	}
	total, err := parseDecimal(record[itemColTotal], "line_total")
	if err != nil {
		return "", model.LineItem{}, err
	}

	return record[itemColInvoice], model.LineItem{
		Name:      record[itemColName],
		Category:  record[itemColCat],
		Quantity:  qty,
		Unit:      record[itemColUnit],
		UnitPrice: price,
		LineTotal: total,
	}, nil
}

// WriteInvoices writes all invoice rows (with header) to w.
func WriteInvoices(w io.Writer, records []model.InvoiceRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(InvoiceHeader, ",")); err != nil {
		return fmt.Errorf("writing invoice header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(MarshalInvoice(r)); err != nil {
			return fmt.Errorf("writing invoice row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteItems writes all line item rows (with header) to w.
func WriteItems(w io.Writer, records []model.InvoiceRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ItemHeader, ",")); err != nil {
		return fmt.Errorf("writing item header: %w", err)
	}
	for _, r := range records {
		for _, item := range r.LineItems {
			if err := cw.Write(MarshalItem(r.ID, item)); err != nil {
				return fmt.Errorf("writing item row for %s: %w", r.ID, err)
			}
		}
	}
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateFormat, s)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}

package dedupe

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbook-dev/greenbook/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(id, vendorID string, total string, issued time.Time) model.InvoiceRecord {
	return model.InvoiceRecord{
		ID:        id,
		Vendor:    model.Vendor{ID: vendorID, Name: "Vendor " + vendorID},
		IssueDate: issued,
		Total:     dec(total),
		LineItems: []model.LineItem{{Name: "Mantenimiento jardín"}},
	}
}

func newTestScanner() *Scanner {
	return NewScanner(zerolog.Nop())
}

// Rule 1 fires on an equal vendor reference even when vendor, amount and
// date all differ.
func TestScan_VendorReferenceAlone(t *testing.T) {
	hist := record("h1", "v9", "500.00", day(2024, 1, 1))
	hist.VendorInvoiceNumber = "F-2025-77"

	cand := record("", "v1", "100.00", day(2025, 3, 10))
	cand.VendorInvoiceNumber = "F-2025-77"
	cand.LineItems = []model.LineItem{{Name: "Poda setos"}}

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	require.Len(t, matches, 1)
	assert.Equal(t, "h1", matches[0].Record.ID)
	assert.Equal(t, []Reason{ReasonVendorReference}, matches[0].Reasons)
}

// A 0.02 delta is above the strict 0.01 tolerance; with differing
// descriptions nothing matches.
func TestScan_AmountAboveTolerance(t *testing.T) {
	hist := record("h1", "v1", "100.00", day(2025, 3, 10))
	cand := record("", "v1", "100.02", day(2025, 3, 10))
	cand.LineItems = []model.LineItem{{Name: "Sustrato universal"}}

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	assert.Empty(t, matches)
}

// Same vendor and total, two days apart: inside the 3-day window.
func TestScan_AmountWithinDateWindow(t *testing.T) {
	hist := record("h1", "v1", "100.00", day(2025, 3, 12))
	hist.LineItems = []model.LineItem{{Name: "Riego por goteo"}}
	cand := record("", "v1", "100.00", day(2025, 3, 10))
	cand.LineItems = []model.LineItem{{Name: "Sustrato universal"}}

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	require.Len(t, matches, 1)
	assert.Equal(t, []Reason{ReasonAmountDate}, matches[0].Reasons)
}

func TestScan_DateWindowBoundary(t *testing.T) {
	cand := record("", "v1", "100.00", day(2025, 3, 10))
	cand.LineItems = []model.LineItem{{Name: "Sustrato"}}

	inside := record("h1", "v1", "100.00", day(2025, 3, 13))
	inside.LineItems = []model.LineItem{{Name: "Riego"}}
	outside := record("h2", "v1", "100.00", day(2025, 3, 14))
	outside.LineItems = []model.LineItem{{Name: "Riego"}}

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{inside, outside})
	require.Len(t, matches, 1, "3 days in, 4 days out")
	assert.Equal(t, "h1", matches[0].Record.ID)
}

func TestScan_DescriptionEqualAndContained(t *testing.T) {
	hist := record("h1", "v1", "80.00", day(2025, 3, 11))
	hist.LineItems = []model.LineItem{{Name: "  MANTENIMIENTO JARDÍN  "}}
	cand := record("", "v1", "200.00", day(2025, 3, 10))

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	require.Len(t, matches, 1)
	assert.Equal(t, []Reason{ReasonDescription}, matches[0].Reasons)

	// Substring containment also fires.
	cand.LineItems = []model.LineItem{{Name: "jardín"}}
	matches = newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	require.Len(t, matches, 1)
	assert.Equal(t, []Reason{ReasonDescription}, matches[0].Reasons)
}

func TestScan_DescriptionRequiresSameVendor(t *testing.T) {
	hist := record("h1", "v2", "80.00", day(2025, 3, 10))
	cand := record("", "v1", "80.00", day(2025, 3, 10))

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	assert.Empty(t, matches)
}

// Multiple rules firing on one record produce one match with every reason.
func TestScan_MultipleReasonsPerMatch(t *testing.T) {
	hist := record("h1", "v1", "100.00", day(2025, 3, 10))
	hist.VendorInvoiceNumber = "REF-1"
	cand := record("", "v1", "100.00", day(2025, 3, 11))
	cand.VendorInvoiceNumber = "REF-1"

	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	require.Len(t, matches, 1)
	assert.ElementsMatch(t,
		[]Reason{ReasonVendorReference, ReasonAmountDate, ReasonDescription},
		matches[0].Reasons)
}

// All matching records come back, not a single best candidate.
func TestScan_AllMatchesReturned(t *testing.T) {
	h1 := record("h1", "v1", "100.00", day(2025, 3, 10))
	h2 := record("h2", "v1", "100.00", day(2025, 3, 12))
	h3 := record("h3", "v1", "350.00", day(2025, 1, 1))
	h3.LineItems = []model.LineItem{{Name: "Desbrozadora"}}

	cand := record("", "v1", "100.00", day(2025, 3, 11))
	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{h1, h2, h3})

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Record.ID
	}
	assert.ElementsMatch(t, []string{"h1", "h2"}, ids)
}

// A corrupt history entry is skipped, not fatal.
func TestScan_MalformedHistorySkipped(t *testing.T) {
	broken := model.InvoiceRecord{Number: "FAC-2025-009"} // no ID, no issue date
	good := record("h1", "v1", "100.00", day(2025, 3, 10))

	cand := record("", "v1", "100.00", day(2025, 3, 10))
	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{broken, good})
	require.Len(t, matches, 1)
	assert.Equal(t, "h1", matches[0].Record.ID)
}

func TestScan_EmptyReferenceNeverMatches(t *testing.T) {
	hist := record("h1", "v2", "50.00", day(2025, 1, 1))
	cand := record("", "v1", "75.00", day(2025, 6, 1))
	cand.LineItems = []model.LineItem{{Name: "Tierra vegetal"}}

	// Both references empty: rule 1 must not fire on "" == "".
	matches := newTestScanner().Scan(cand, []model.InvoiceRecord{hist})
	assert.Empty(t, matches)
}

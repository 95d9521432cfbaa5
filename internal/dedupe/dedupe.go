// Package dedupe scans a candidate invoice against the ledger history for
// plausible duplicates.
//
// The scanner is a union of independent boolean rules, not a ranked
// matcher: every historical record for which any rule holds is returned,
// annotated with each rule that fired. Callers must not collapse the result
// into a single best match.
package dedupe

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Reason identifies which duplicate rule fired for a match.
type Reason string

const (
	// ReasonVendorReference: the vendor-supplied invoice numbers are equal.
	// Sufficient on its own, regardless of vendor, amount or date.
	ReasonVendorReference Reason = "vendor-reference"
	// ReasonAmountDate: same vendor, totals within the amount tolerance,
	// issue dates within the date window.
	ReasonAmountDate Reason = "amount-date"
	// ReasonDescription: same vendor, equal or contained descriptions,
	// issue dates within the date window.
	ReasonDescription Reason = "description"
)

// Match pairs a historical record with every rule that flagged it.
type Match struct {
	Record  model.InvoiceRecord
	Reasons []Reason
}

// amountTolerance is the strict upper bound on the total difference for the
// amount-date rule.
var amountTolerance = decimal.NewFromFloat(0.01)

// dateWindow is the maximum issue-date gap for rules 2 and 3.
const dateWindow = 3 * 24 * time.Hour

// Scanner scans candidates against invoice history.
type Scanner struct {
	log zerolog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(log zerolog.Logger) *Scanner {
	return &Scanner{log: log}
}

// Scan returns every historical record that plausibly duplicates the
// candidate. History is scanned in full; malformed entries are skipped with
// a warning so one corrupt record cannot block reconciliation.
func (s *Scanner) Scan(candidate model.InvoiceRecord, history []model.InvoiceRecord) []Match {
	var matches []Match
	for _, r := range history {
		if r.ID == "" || r.IssueDate.IsZero() {
			s.log.Warn().
				Str("number", r.Number).
				Msg("skipping malformed historical record during duplicate scan")
			continue
		}

		var reasons []Reason
		if sameVendorReference(candidate, r) {
			reasons = append(reasons, ReasonVendorReference)
		}
		if sameAmountAndDate(candidate, r) {
			reasons = append(reasons, ReasonAmountDate)
		}
		if similarDescription(candidate, r) {
			reasons = append(reasons, ReasonDescription)
		}
		if len(reasons) > 0 {
			matches = append(matches, Match{Record: r, Reasons: reasons})
		}
	}
	return matches
}

func sameVendorReference(c, r model.InvoiceRecord) bool {
	return c.VendorInvoiceNumber != "" && c.VendorInvoiceNumber == r.VendorInvoiceNumber
}

func sameAmountAndDate(c, r model.InvoiceRecord) bool {
	return c.SameVendor(r) &&
		c.Total.Sub(r.Total).Abs().LessThan(amountTolerance) &&
		withinDateWindow(c.IssueDate, r.IssueDate)
}

func similarDescription(c, r model.InvoiceRecord) bool {
	if !c.SameVendor(r) || !withinDateWindow(c.IssueDate, r.IssueDate) {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(c.Description()))
	b := strings.ToLower(strings.TrimSpace(r.Description()))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func withinDateWindow(a, b time.Time) bool {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	return gap <= dateWindow
}

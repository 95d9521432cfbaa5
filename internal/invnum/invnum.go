// Package invnum derives sequential invoice numbers of the form
// "<PREFIX>-<YEAR>-<SEQ>", e.g. "FAC-2025-001".
package invnum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pattern matches a well-formed invoice number.
var Pattern = regexp.MustCompile(`^(.+)-(\d{4})-(\d{3})$`)

// Format returns an invoice number like "FAC-2025-001".
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%03d", prefix, year, seq)
}

// Allocate returns the next invoice number for a prefix and year given the
// numbers already present in the ledger snapshot. The sequence is derived by
// counting existing numbers under the same prefix-year, not from a separate
// counter, so correctness depends on the snapshot being complete and on a
// single writer at a time.
func Allocate(prefix string, year int, existing []string) string {
	head := fmt.Sprintf("%s-%04d-", prefix, year)
	count := 0
	for _, n := range existing {
		if strings.HasPrefix(n, head) {
			count++
		}
	}
	return Format(prefix, year, count+1)
}

// Parse splits an invoice number into prefix, year and sequence.
func Parse(number string) (prefix string, year, seq int, err error) {
	m := Pattern.FindStringSubmatch(number)
	if m == nil {
		return "", 0, 0, fmt.Errorf("invalid invoice number format: %q", number)
	}
	year, err = strconv.Atoi(m[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid year in invoice number %q: %w", number, err)
	}
	seq, err = strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid sequence in invoice number %q: %w", number, err)
	}
	return m[1], year, seq, nil
}

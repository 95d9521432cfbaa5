// Package auditlog appends reconciliation decisions to logs/decision-log.csv
// so forced commits and discards stay inspectable after the fact.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Action is the terminal outcome being recorded.
type Action string

const (
	ActionCommitted Action = "committed"
	ActionForced    Action = "forced"
	ActionDiscarded Action = "discarded"
)

// Entry is one row in the decision log.
type Entry struct {
	Timestamp      time.Time
	Action         Action
	InvoiceID      string
	Number         string
	Vendor         string
	ConflictingIDs []string
}

// Header is the CSV header for decision-log.csv.
const Header = "timestamp,action,invoice_id,number,vendor,conflicting_ids"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/decision-log.csv"
	colTimestamp = 0
	colAction    = 1
	colInvoiceID = 2
	colNumber    = 3
	colVendor    = 4
	colConflicts = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = string(e.Action)
	row[colInvoiceID] = e.InvoiceID
	row[colNumber] = e.Number
	row[colVendor] = e.Vendor
	row[colConflicts] = strings.Join(e.ConflictingIDs, ";")
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	e := Entry{
		Timestamp: ts,
		Action:    Action(record[colAction]),
		InvoiceID: record[colInvoiceID],
		Number:    record[colNumber],
		Vendor:    record[colVendor],
	}
	if record[colConflicts] != "" {
		e.ConflictingIDs = strings.Split(record[colConflicts], ";")
	}
	return e, nil
}

// Append adds entries to the decision log, creating the file with a header
// if needed.
func Append(root string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening decision log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if isNew {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
	}
	return cw.Error()
}

// Read returns all entries from the decision log.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening decision log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading decision log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

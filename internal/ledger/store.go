package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Storage is the durable backend for invoice records. The contract is
// deliberately whole-snapshot: there is no partial update, and writers must
// not overlap. An interrupted ReplaceAll can leave the store corrupt.
type Storage interface {
	LoadAll() ([]model.InvoiceRecord, error)
	ReplaceAll(records []model.InvoiceRecord) error
}

const (
	ledgerDir    = "ledger"
	invoicesFile = "invoices.csv"
	itemsFile    = "line-items.csv"
)

// FileStore persists the ledger as a CSV pair under <root>/ledger/.
type FileStore struct {
	root string
	log  zerolog.Logger
}

// NewFileStore creates a FileStore rooted at the books directory.
func NewFileStore(root string, log zerolog.Logger) *FileStore {
	return &FileStore{root: root, log: log}
}

// LoadAll reads every invoice record with its line items. Rows that fail to
// parse are skipped with a warning so one corrupt entry cannot block the
// rest of the ledger.
func (s *FileStore) LoadAll() ([]model.InvoiceRecord, error) {
	invRows, err := s.readRows(s.invoicesPath())
	if err != nil {
		return nil, err
	}

	var records []model.InvoiceRecord
	index := make(map[string]int)
	for i, row := range invRows {
		rec, err := UnmarshalInvoice(row)
		if err != nil {
			s.log.Warn().Err(err).Int("row", i+2).Msg("skipping unreadable invoice row")
			continue
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}

	itemRows, err := s.readRows(s.itemsPath())
	if err != nil {
		return nil, err
	}
	for i, row := range itemRows {
		invoiceID, item, err := UnmarshalItem(row)
		if err != nil {
			s.log.Warn().Err(err).Int("row", i+2).Msg("skipping unreadable line item row")
			continue
		}
		pos, ok := index[invoiceID]
		if !ok {
			s.log.Warn().Str("invoice_id", invoiceID).Msg("skipping orphaned line item row")
			continue
		}
		records[pos].LineItems = append(records[pos].LineItems, item)
	}

	return records, nil
}

// ReplaceAll rewrites both ledger files from the given snapshot.
func (s *FileStore) ReplaceAll(records []model.InvoiceRecord) error {
	dir := filepath.Join(s.root, ledgerDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	if err := writeFile(s.invoicesPath(), func(f *os.File) error {
		return WriteInvoices(f, records)
	}); err != nil {
		return err
	}
	return writeFile(s.itemsPath(), func(f *os.File) error {
		return WriteItems(f, records)
	})
}

func (s *FileStore) invoicesPath() string {
	return filepath.Join(s.root, ledgerDir, invoicesFile)
}

func (s *FileStore) itemsPath() string {
	return filepath.Join(s.root, ledgerDir, itemsFile)
}

// readRows returns data rows (header skipped). A missing file is an empty
// ledger, not an error.
func (s *FileStore) readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // row length checked per record so bad rows skip, not abort

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

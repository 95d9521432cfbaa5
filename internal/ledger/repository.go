package ledger

import (
	"fmt"
	"time"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Repository wraps a Storage backend with typed operations over the invoice
// ledger. It holds no ledger state itself; every operation is a fresh
// load-modify-replace against the backend.
type Repository struct {
	storage Storage
}

// NewRepository creates a Repository over the given backend.
func NewRepository(storage Storage) *Repository {
	return &Repository{storage: storage}
}

// LoadAll returns the current ledger snapshot.
func (r *Repository) LoadAll() ([]model.InvoiceRecord, error) {
	return r.storage.LoadAll()
}

// ReplaceAll writes back a full snapshot.
func (r *Repository) ReplaceAll(records []model.InvoiceRecord) error {
	return r.storage.ReplaceAll(records)
}

// Find returns the record whose ID or number equals key.
func (r *Repository) Find(key string) (model.InvoiceRecord, error) {
	records, err := r.storage.LoadAll()
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	for _, rec := range records {
		if rec.ID == key || rec.Number == key {
			return rec, nil
		}
	}
	return model.InvoiceRecord{}, fmt.Errorf("invoice %q not found", key)
}

// MarkPaid sets a record to paid with the given payment date.
func (r *Repository) MarkPaid(key string, paidOn time.Time) (model.InvoiceRecord, error) {
	return r.update(key, func(rec *model.InvoiceRecord) error {
		if rec.Status == model.StatusCancelled {
			return fmt.Errorf("invoice %s is cancelled", rec.Number)
		}
		rec.Status = model.StatusPaid
		rec.PaymentDate = paidOn
		return nil
	})
}

// Cancel sets a record to cancelled.
func (r *Repository) Cancel(key string) (model.InvoiceRecord, error) {
	return r.update(key, func(rec *model.InvoiceRecord) error {
		if rec.Status == model.StatusPaid {
			return fmt.Errorf("invoice %s is already paid", rec.Number)
		}
		rec.Status = model.StatusCancelled
		return nil
	})
}

// MarkOverdue flips pending records whose due date has passed to overdue.
// This is the housekeeping pass; it is the only path that rewrites history
// outside an explicit per-record operation. Returns how many records changed.
func (r *Repository) MarkOverdue(asOf time.Time) (int, error) {
	records, err := r.storage.LoadAll()
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, rec := range records {
		if rec.Status != model.StatusPending || rec.DueDate.IsZero() {
			continue
		}
		if rec.DueDate.Before(asOf) {
			records[i].Status = model.StatusOverdue
			records[i].EditedAt = asOf
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := r.storage.ReplaceAll(records); err != nil {
		return 0, err
	}
	return changed, nil
}

func (r *Repository) update(key string, apply func(*model.InvoiceRecord) error) (model.InvoiceRecord, error) {
	records, err := r.storage.LoadAll()
	if err != nil {
		return model.InvoiceRecord{}, err
	}

	for i := range records {
		if records[i].ID != key && records[i].Number != key {
			continue
		}
		if err := apply(&records[i]); err != nil {
			return model.InvoiceRecord{}, err
		}
		records[i].EditedAt = time.Now().UTC()
		if err := r.storage.ReplaceAll(records); err != nil {
			return model.InvoiceRecord{}, err
		}
		return records[i], nil
	}
	return model.InvoiceRecord{}, fmt.Errorf("invoice %q not found", key)
}

// Numbers extracts the invoice numbers from a snapshot, in ledger order.
func Numbers(records []model.InvoiceRecord) []string {
	nums := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Number != "" {
			nums = append(nums, rec.Number)
		}
	}
	return nums
}

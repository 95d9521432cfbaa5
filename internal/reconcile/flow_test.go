package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbook-dev/greenbook/internal/ledger"
	"github.com/greenbook-dev/greenbook/internal/model"
	"github.com/greenbook-dev/greenbook/internal/notify"
)

// memStore is an in-memory Storage for tests.
type memStore struct {
	records  []model.InvoiceRecord
	failNext error
}

func (m *memStore) LoadAll() ([]model.InvoiceRecord, error) {
	out := make([]model.InvoiceRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) ReplaceAll(records []model.InvoiceRecord) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.records = records
	return nil
}

// recorder captures emitted events.
type recorder struct {
	added []string
}

func (r *recorder) InvoiceAdded(rec model.InvoiceRecord) { r.added = append(r.added, rec.Number) }
func (r *recorder) InvoicePaid(model.InvoiceRecord)      {}

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

func draft(vendorID string, issued time.Time, itemName, qty, price string) model.InvoiceRecord {
	return model.InvoiceRecord{
		Vendor:    model.Vendor{ID: vendorID, Name: "Viveros García"},
		IssueDate: issued,
		LineItems: []model.LineItem{
			{Name: itemName, Quantity: dec(qty), Unit: "ud", UnitPrice: dec(price)},
		},
	}
}

func newTestPipeline(store *memStore, notifier notify.Notifier) *Pipeline {
	return NewPipeline(ledger.NewRepository(store), "FAC", notifier, zerolog.Nop())
}

// Empty history: a valid draft reaches Clean and auto-commits as -001.
func TestStart_EmptyHistoryAutoCommits(t *testing.T) {
	store := &memStore{}
	events := &recorder{}
	p := newTestPipeline(store, events)

	flow, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, flow.State())

	rec := flow.Record()
	assert.Equal(t, "FAC-2025-001", rec.Number)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Nil(t, rec.Conflict)
	assert.False(t, rec.CreatedAt.IsZero())

	require.Len(t, store.records, 1)
	assert.Equal(t, []string{"FAC-2025-001"}, events.added)
}

func TestStart_SequentialNumbers(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	flow, err := p.Start(draft("v2", day(2025, 6, 2), "Poda setos", "3", "40.00"))
	require.NoError(t, err)
	assert.Equal(t, "FAC-2025-002", flow.Record().Number)

	// A different issue year starts its own sequence.
	flow, err = p.Start(draft("v3", day(2024, 12, 30), "Tierra vegetal", "10", "6.00"))
	require.NoError(t, err)
	assert.Equal(t, "FAC-2024-001", flow.Record().Number)
}

func TestStart_ValidationBlocksScanning(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(model.InvoiceRecord{})
	var vErr *ValidationFailedError
	require.ErrorAs(t, err, &vErr)
	assert.NotEmpty(t, vErr.Errors)
	assert.Empty(t, store.records, "no ledger write on validation failure")
}

func TestStart_ConflictHalts(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)

	flow, err := p.Start(draft("v1", day(2025, 3, 11), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	assert.Equal(t, StateConflict, flow.State())
	assert.NotEmpty(t, flow.Matches())
	require.Len(t, store.records, 1, "nothing written while conflicted")
}

func TestResolve_Discard(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	flow, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	require.Equal(t, StateConflict, flow.State())

	rec, err := flow.Resolve(DecisionDiscard)
	require.NoError(t, err)
	assert.Equal(t, StateDiscarded, flow.State())
	assert.Empty(t, rec.ID, "discard creates no record")
	assert.Len(t, store.records, 1)

	// Terminal: no second decision.
	_, err = flow.Resolve(DecisionForceCommit)
	assert.Error(t, err)
}

func TestResolve_ForceCommitCarriesAudit(t *testing.T) {
	store := &memStore{}
	events := &recorder{}
	p := newTestPipeline(store, events)

	first, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	originalID := first.Record().ID

	flow, err := p.Start(draft("v1", day(2025, 3, 12), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	require.Equal(t, StateConflict, flow.State())

	rec, err := flow.Resolve(DecisionForceCommit)
	require.NoError(t, err)
	assert.Equal(t, StateForcedCommitted, flow.State())
	assert.Equal(t, "FAC-2025-002", rec.Number)
	require.NotNil(t, rec.Conflict)
	assert.True(t, rec.Conflict.Forced)
	assert.Equal(t, []string{originalID}, rec.Conflict.ConflictingIDs)

	// The matched historical record is unchanged.
	require.Len(t, store.records, 2)
	assert.Equal(t, originalID, store.records[0].ID)
	assert.Nil(t, store.records[0].Conflict)
	assert.Equal(t, []string{"FAC-2025-001", "FAC-2025-002"}, events.added)
}

func TestResolve_UnknownDecision(t *testing.T) {
	store := &memStore{}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)
	flow, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.NoError(t, err)

	_, err = flow.Resolve(Decision("merge"))
	assert.Error(t, err)
	assert.Equal(t, StateConflict, flow.State(), "flow stays open")
}

func TestCommit_WriteFailureSurfaced(t *testing.T) {
	store := &memStore{failNext: errors.New("disk full")}
	p := newTestPipeline(store, notify.Nop{})

	_, err := p.Start(draft("v1", day(2025, 3, 10), "Abono césped", "4", "12.50"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, store.records)
}

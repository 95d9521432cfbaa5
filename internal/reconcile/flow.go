// Package reconcile drives a draft invoice through normalization, duplicate
// scanning and commit against the ledger.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenbook-dev/greenbook/internal/dedupe"
	"github.com/greenbook-dev/greenbook/internal/invnum"
	"github.com/greenbook-dev/greenbook/internal/ledger"
	"github.com/greenbook-dev/greenbook/internal/model"
	"github.com/greenbook-dev/greenbook/internal/normalize"
	"github.com/greenbook-dev/greenbook/internal/notify"
)

// State is the position of a flow in the reconciliation lifecycle.
type State string

const (
	StateDraft           State = "draft"
	StateScanning        State = "scanning"
	StateClean           State = "clean"
	StateConflict        State = "conflict"
	StateCommitted       State = "committed"
	StateDiscarded       State = "discarded"
	StateForcedCommitted State = "forced-committed"
)

// Decision resolves a conflicted flow. These are the only two admissible
// choices; there is no merge and no automatic deduplication.
type Decision string

const (
	DecisionDiscard     Decision = "discard"
	DecisionForceCommit Decision = "force-commit"
)

// ValidationFailedError carries the normalizer's error list when a draft is
// rejected before scanning.
type ValidationFailedError struct {
	Errors []normalize.Error
}

func (e *ValidationFailedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "draft validation failed: " + strings.Join(msgs, "; ")
}

// Pipeline builds reconciliation flows against one ledger repository.
type Pipeline struct {
	repo     *ledger.Repository
	scanner  *dedupe.Scanner
	prefix   string
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewPipeline creates a Pipeline. prefix is the invoice-number prefix, e.g.
// "FAC".
func NewPipeline(repo *ledger.Repository, prefix string, notifier notify.Notifier, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		scanner:  dedupe.NewScanner(log),
		prefix:   prefix,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Flow is one draft moving through the state machine. A flow lives in
// memory only: abandoning a conflicted flow loses the draft without a
// recorded discard.
type Flow struct {
	pipeline *Pipeline
	state    State
	record   model.InvoiceRecord
	history  []model.InvoiceRecord
	matches  []dedupe.Match
}

// Start normalizes the draft, scans it against the current ledger snapshot
// and either auto-commits (no matches) or halts in StateConflict for a
// decision. A *ValidationFailedError is returned when the draft cannot
// leave StateDraft.
func (p *Pipeline) Start(draft model.InvoiceRecord) (*Flow, error) {
	rec, verrs := normalize.Normalize(draft)
	if len(verrs) > 0 {
		return nil, &ValidationFailedError{Errors: verrs}
	}

	flow := &Flow{pipeline: p, state: StateScanning, record: rec}

	history, err := p.repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("loading ledger snapshot: %w", err)
	}
	flow.history = history
	flow.matches = p.scanner.Scan(rec, history)

	if len(flow.matches) == 0 {
		flow.state = StateClean
		if err := flow.commit(false); err != nil {
			return flow, err
		}
		return flow, nil
	}

	flow.state = StateConflict
	p.log.Info().
		Int("matches", len(flow.matches)).
		Str("vendor", rec.Vendor.Name).
		Msg("duplicate conflict, awaiting decision")
	return flow, nil
}

// State returns the flow's current state.
func (f *Flow) State() State { return f.state }

// Record returns the normalized record; after a commit it carries the
// assigned number, ID and audit metadata.
func (f *Flow) Record() model.InvoiceRecord { return f.record }

// Matches returns the duplicate matches that put the flow in StateConflict.
func (f *Flow) Matches() []dedupe.Match { return f.matches }

// Resolve applies a human decision to a conflicted flow. Discard ends the
// flow without touching the ledger. ForceCommit commits the record with a
// conflict audit listing the matched records, which themselves stay
// untouched.
func (f *Flow) Resolve(d Decision) (model.InvoiceRecord, error) {
	if f.state != StateConflict {
		return model.InvoiceRecord{}, fmt.Errorf("cannot resolve flow in state %q", f.state)
	}

	switch d {
	case DecisionDiscard:
		f.state = StateDiscarded
		return model.InvoiceRecord{}, nil
	case DecisionForceCommit:
		if err := f.commit(true); err != nil {
			return model.InvoiceRecord{}, err
		}
		return f.record, nil
	default:
		return model.InvoiceRecord{}, fmt.Errorf("unknown decision %q", d)
	}
}

// commit assigns the invoice number from the held snapshot, appends the
// record and writes the snapshot back. A write failure is surfaced as-is;
// the durable store may then be stale and the caller must say so rather
// than retry silently.
func (f *Flow) commit(forced bool) error {
	p := f.pipeline

	f.record.Number = invnum.Allocate(p.prefix, f.record.IssueDate.Year(), ledger.Numbers(f.history))
	if f.record.ID == "" {
		f.record.ID = uuid.NewString()
	}
	f.record.CreatedAt = p.now().UTC()
	f.record.Status = model.StatusPending

	if forced {
		ids := make([]string, len(f.matches))
		for i, m := range f.matches {
			ids[i] = m.Record.ID
		}
		f.record.Conflict = &model.ConflictAudit{Forced: true, ConflictingIDs: ids}
	}

	snapshot := append(f.history, f.record)
	if err := p.repo.ReplaceAll(snapshot); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}

	if forced {
		f.state = StateForcedCommitted
	} else {
		f.state = StateCommitted
	}

	p.notifier.InvoiceAdded(f.record)
	p.log.Info().
		Str("number", f.record.Number).
		Str("vendor", f.record.Vendor.Name).
		Bool("forced", forced).
		Msg("invoice committed")
	return nil
}

// Package extract turns a captured invoice document into a draft record.
//
// The adapter is a pluggable capability boundary: the pipeline treats the
// returned confidence as informational only and always runs the draft
// through normalization and duplicate scanning. Extraction failure is an
// expected path; callers fall back to manual draft entry.
package extract

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Result is an extracted draft plus the engine's overall confidence in it
// (0..1).
type Result struct {
	Draft      model.InvoiceRecord
	Confidence decimal.Decimal
}

// Adapter extracts a draft invoice from a captured document.
type Adapter interface {
	Extract(ctx context.Context, document io.Reader) (*Result, error)
}

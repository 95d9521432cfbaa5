// Package notify emits fire-and-forget invoice events for the surrounding
// UI. Delivery is best effort; the pipeline never blocks on or retries it.
package notify

import (
	"github.com/rs/zerolog"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// Notifier receives invoice lifecycle events.
type Notifier interface {
	InvoiceAdded(rec model.InvoiceRecord)
	InvoicePaid(rec model.InvoiceRecord)
}

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) InvoiceAdded(rec model.InvoiceRecord) {
	n.log.Info().
		Str("number", rec.Number).
		Str("vendor", rec.Vendor.Name).
		Str("total", rec.Total.StringFixed(2)).
		Msg("invoice added")
}

func (n *LogNotifier) InvoicePaid(rec model.InvoiceRecord) {
	n.log.Info().
		Str("number", rec.Number).
		Str("vendor", rec.Vendor.Name).
		Msg("invoice paid")
}

// Nop discards all events.
type Nop struct{}

func (Nop) InvoiceAdded(model.InvoiceRecord) {}
func (Nop) InvoicePaid(model.InvoiceRecord)  {}

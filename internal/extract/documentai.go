package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"github.com/greenbook-dev/greenbook/internal/model"
)

// maxDocumentBytes is the synchronous processing limit of Document AI.
const maxDocumentBytes = 20 * 1024 * 1024

// DocumentAIConfig configures the Document AI invoice parser backend.
type DocumentAIConfig struct {
	ProjectID   string
	Location    string // "us", "eu", ...
	ProcessorID string
	Timeout     time.Duration
}

// DocumentAIAdapter implements Adapter using the Google Document AI invoice
// parser.
type DocumentAIAdapter struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIAdapter creates the adapter, taking credentials from
// GOOGLE_CREDENTIALS (inline JSON) or GOOGLE_APPLICATION_CREDENTIALS (file).
func NewDocumentAIAdapter(ctx context.Context, cfg DocumentAIConfig, log zerolog.Logger) (*DocumentAIAdapter, error) {
	const op = "NewDocumentAIAdapter"

	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, wrap(op, ErrMissingCredentials, "project and processor IDs are required")
	}
	if cfg.Location == "" {
		cfg.Location = "eu"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	var opts []option.ClientOption
	if cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, wrap(op, err, "creating Document AI client")
	}

	return &DocumentAIAdapter{client: client, config: cfg, log: log}, nil
}

// Close releases the underlying client.
func (a *DocumentAIAdapter) Close() error {
	return a.client.Close()
}

// Extract runs the document through the invoice processor and maps its
// entities onto a draft record. The returned confidence is the mean of the
// per-entity confidences.
func (a *DocumentAIAdapter) Extract(ctx context.Context, document io.Reader) (*Result, error) {
	const op = "Extract"

	data, err := io.ReadAll(document)
	if err != nil {
		return nil, wrap(op, err, "reading document")
	}
	if len(data) > maxDocumentBytes {
		return nil, wrap(op, ErrDocumentTooLarge, fmt.Sprintf("%d bytes", len(data)))
	}
	if len(data) < 4 {
		return nil, wrap(op, ErrUnreadableDocument, "empty or truncated file")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: fmt.Sprintf("projects/%s/locations/%s/processors/%s",
			a.config.ProjectID, a.config.Location, a.config.ProcessorID),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType(data),
			},
		},
	}

	resp, err := a.client.ProcessDocument(callCtx, req)
	if err != nil {
		return nil, a.classify(op, err)
	}
	if resp.Document == nil {
		return nil, wrap(op, ErrExtractionFailed, "no document in response")
	}

	return a.mapDocument(resp.Document), nil
}

// classify maps Document AI transport errors onto the package sentinels.
func (a *DocumentAIAdapter) classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "UNAUTHENTICATED"):
		return wrap(op, ErrMissingCredentials, "rejected by Document AI")
	case strings.Contains(msg, "NOT_FOUND"):
		return wrap(op, ErrProcessorNotFound, a.config.ProcessorID)
	case strings.Contains(msg, "INVALID_ARGUMENT"):
		return wrap(op, ErrUnreadableDocument, "rejected by Document AI")
	default:
		return wrap(op, ErrExtractionFailed, msg)
	}
}

func (a *DocumentAIAdapter) mapDocument(doc *documentaipb.Document) *Result {
	var draft model.InvoiceRecord
	var confSum float64
	var confN int

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		confSum += float64(entity.Confidence)
		confN++

		switch entity.Type {
		case "supplier_name":
			draft.Vendor.Name = value
		case "supplier_tax_id":
			draft.Vendor.TaxID = value
		case "invoice_id":
			draft.VendorInvoiceNumber = value
		case "invoice_date":
			if d, ok := entityDate(entity); ok {
				draft.IssueDate = d
			}
		case "due_date":
			if d, ok := entityDate(entity); ok {
				draft.DueDate = d
			}
		case "line_item":
			if item, ok := lineItem(entity); ok {
				draft.LineItems = append(draft.LineItems, item)
			}
		default:
			a.log.Debug().Str("entity", entity.Type).Str("value", value).Msg("unmapped entity")
		}
	}

	confidence := decimal.Zero
	if confN > 0 {
		confidence = decimal.NewFromFloat(confSum / float64(confN)).Round(2)
	}

	a.log.Info().
		Str("vendor", draft.Vendor.Name).
		Int("line_items", len(draft.LineItems)).
		Str("confidence", confidence.String()).
		Msg("document extracted")

	return &Result{Draft: draft, Confidence: confidence}
}

// lineItem assembles a LineItem from a line_item entity's properties.
func lineItem(entity *documentaipb.Document_Entity) (model.LineItem, bool) {
	var item model.LineItem
	for _, prop := range entity.Properties {
		value := strings.TrimSpace(prop.MentionText)
		switch prop.Type {
		case "line_item/description":
			item.Name = value
		case "line_item/quantity":
			if q, err := decimal.NewFromString(value); err == nil {
				item.Quantity = q
			}
		case "line_item/unit":
			item.Unit = value
		case "line_item/unit_price":
			if p, ok := entityMoney(prop); ok {
				item.UnitPrice = p
			}
		}
	}
	if item.Name == "" {
		return model.LineItem{}, false
	}
	if item.Quantity.IsZero() {
		item.Quantity = decimal.NewFromInt(1)
	}
	return item, true
}

func entityDate(entity *documentaipb.Document_Entity) (time.Time, bool) {
	if nv := entity.NormalizedValue; nv != nil {
		if dv := nv.GetDateValue(); dv != nil {
			return time.Date(int(dv.Year), time.Month(dv.Month), int(dv.Day), 0, 0, 0, 0, time.UTC), true
		}
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02.01.2006", "2 Jan 2006"} {
		if d, err := time.Parse(layout, strings.TrimSpace(entity.MentionText)); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func entityMoney(entity *documentaipb.Document_Entity) (decimal.Decimal, bool) {
	if nv := entity.NormalizedValue; nv != nil {
		if mv := nv.GetMoneyValue(); mv != nil {
			cents := mv.Units*100 + int64(mv.Nanos)/10_000_000
			return decimal.New(cents, -2), true
		}
	}
	raw := strings.TrimSpace(entity.MentionText)
	raw = strings.NewReplacer("€", "", "$", "", " ", "", ",", ".").Replace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// mimeType sniffs the capture format; the camera flow hands over JPEG or
// PDF.
func mimeType(data []byte) string {
	switch {
	case string(data[:4]) == "%PDF":
		return "application/pdf"
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) > 8 && string(data[1:4]) == "PNG":
		return "image/png"
	default:
		return "application/pdf"
	}
}

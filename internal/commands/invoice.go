package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/greenbook-dev/greenbook/internal/auditlog"
	"github.com/greenbook-dev/greenbook/internal/dedupe"
	"github.com/greenbook-dev/greenbook/internal/extract"
	"github.com/greenbook-dev/greenbook/internal/model"
	"github.com/greenbook-dev/greenbook/internal/notify"
	"github.com/greenbook-dev/greenbook/internal/reconcile"
)

const dateFormat = "2006-01-02"

func newInvoiceCommand() *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Vendor invoice operations",
	}
	invoiceCmd.AddCommand(newInvoiceAddCommand())
	invoiceCmd.AddCommand(newInvoiceCaptureCommand())
	invoiceCmd.AddCommand(newInvoiceListCommand())
	invoiceCmd.AddCommand(newInvoiceMarkPaidCommand())
	invoiceCmd.AddCommand(newInvoiceCancelCommand())
	invoiceCmd.AddCommand(newInvoiceOverdueCommand())
	return invoiceCmd
}

// addOptions holds the manual-entry flags shared by add and capture.
type addOptions struct {
	booksDir   string
	vendor     string
	date       string
	due        string
	items      []string
	taxRate    float64
	ref        string
	onConflict string
}

func newInvoiceAddCommand() *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enter a vendor invoice and reconcile it into the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(opts.booksDir)
			if err != nil {
				return err
			}
			draft, err := draftFromOptions(env, opts)
			if err != nil {
				return err
			}
			return runPipeline(env, draft, opts.onConflict)
		},
	}

	cmd.Flags().StringVar(&opts.booksDir, "books", ".", "books directory")
	cmd.Flags().StringVar(&opts.vendor, "vendor", "", "vendor name (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "issue date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&opts.items, "item", nil, "line item as name:qty:unit:price (repeatable)")
	cmd.Flags().Float64Var(&opts.taxRate, "tax-rate", 0, "tax rate fraction, defaults to the configured rate")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "vendor-supplied invoice number")
	cmd.Flags().StringVar(&opts.onConflict, "on-conflict", "abort", "abort, discard or force when duplicates are found")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newInvoiceCaptureCommand() *cobra.Command {
	var booksDir string
	var onConflict string

	cmd := &cobra.Command{
		Use:   "capture <file>",
		Short: "Extract a vendor invoice from a captured document and reconcile it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			return runCapture(cmd.Context(), env, args[0], onConflict)
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "abort", "abort, discard or force when duplicates are found")

	return cmd
}

func draftFromOptions(env *env, opts addOptions) (model.InvoiceRecord, error) {
	issued, err := time.Parse(dateFormat, opts.date)
	if err != nil {
		return model.InvoiceRecord{}, fmt.Errorf("parsing --date: %w", err)
	}

	draft := model.InvoiceRecord{
		IssueDate:           issued,
		VendorInvoiceNumber: opts.ref,
	}

	if opts.due != "" {
		due, err := time.Parse(dateFormat, opts.due)
		if err != nil {
			return model.InvoiceRecord{}, fmt.Errorf("parsing --due: %w", err)
		}
		draft.DueDate = due
	}

	for _, raw := range opts.items {
		item, err := parseItem(raw)
		if err != nil {
			return model.InvoiceRecord{}, err
		}
		draft.LineItems = append(draft.LineItems, item)
	}

	switch {
	case opts.taxRate != 0:
		draft.TaxRate = decimal.NewFromFloat(opts.taxRate)
	case env.cfg.Invoicing.TaxRate != 0:
		draft.TaxRate = decimal.NewFromFloat(env.cfg.Invoicing.TaxRate)
	}

	draft.Vendor = resolveVendor(env, opts.vendor)
	return draft, nil
}

// parseItem parses "name:qty:unit:price". The name may itself contain
// colons; the last three segments are fixed.
func parseItem(raw string) (model.LineItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 4 {
		return model.LineItem{}, fmt.Errorf("invalid --item %q, want name:qty:unit:price", raw)
	}
	name := strings.Join(parts[:len(parts)-3], ":")
	qty, err := decimal.NewFromString(parts[len(parts)-3])
	if err != nil {
		return model.LineItem{}, fmt.Errorf("invalid quantity in --item %q: %w", raw, err)
	}
	price, err := decimal.NewFromString(parts[len(parts)-1])
	if err != nil {
		return model.LineItem{}, fmt.Errorf("invalid price in --item %q: %w", raw, err)
	}
	return model.LineItem{
		Name:      name,
		Quantity:  qty,
		Unit:      parts[len(parts)-2],
		UnitPrice: price,
	}, nil
}

// resolveVendor looks the vendor up by name, creating it on first sight.
func resolveVendor(env *env, name string) model.Vendor {
	vendor, created := env.vendors.GetOrCreate(name)
	if created {
		if err := env.vendors.Save(env.root); err != nil {
			env.log.Warn().Err(err).Msg("saving vendor directory failed")
		}
	}
	return vendor
}

func runCapture(ctx context.Context, env *env, file, onConflict string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening capture: %w", err)
	}
	defer f.Close()

	adapter, err := extract.NewDocumentAIAdapter(ctx, extract.DocumentAIConfig{
		ProjectID:   env.cfg.Extraction.ProjectID,
		Location:    env.cfg.Extraction.Location,
		ProcessorID: env.cfg.Extraction.ProcessorID,
	}, env.log)
	if err != nil {
		return extractionFallback(err)
	}
	defer adapter.Close()

	result, err := adapter.Extract(ctx, f)
	if err != nil {
		return extractionFallback(err)
	}

	draft := result.Draft
	draft.SourceImage = file
	draft.ExtractionConfidence = result.Confidence

	if draft.Vendor.Name == "" {
		return extractionFallback(fmt.Errorf("no vendor name found in document"))
	}
	draft.Vendor = resolveVendor(env, draft.Vendor.Name)

	if env.cfg.Invoicing.TaxRate != 0 {
		draft.TaxRate = decimal.NewFromFloat(env.cfg.Invoicing.TaxRate)
	}

	// The confidence score never bypasses validation or scanning: every
	// extracted draft goes through the same pipeline as manual entry.
	return runPipeline(env, draft, onConflict)
}

// extractionFallback reports the failure and points at manual entry. The
// error is expected, not fatal.
func extractionFallback(err error) error {
	fmt.Printf("Extraction failed: %v\n", err)
	fmt.Println("Enter the invoice manually with 'greenbook invoice add'.")
	return nil
}

// runPipeline drives one draft through reconciliation and applies the
// conflict policy.
func runPipeline(env *env, draft model.InvoiceRecord, onConflict string) error {
	notifier := notify.NewLogNotifier(env.log)
	pipeline := reconcile.NewPipeline(env.repo, env.cfg.Invoicing.Prefix, notifier, env.log)

	flow, err := pipeline.Start(draft)
	if err != nil {
		var vErr *reconcile.ValidationFailedError
		if errors.As(err, &vErr) {
			fmt.Println("Invoice rejected:")
			for _, ve := range vErr.Errors {
				fmt.Printf("  - %s\n", ve)
			}
		}
		return err
	}

	switch flow.State() {
	case reconcile.StateCommitted:
		return finishCommit(env, flow.Record(), auditlog.ActionCommitted, nil)
	case reconcile.StateConflict:
		return resolveConflict(env, flow, onConflict)
	default:
		return fmt.Errorf("unexpected pipeline state %q", flow.State())
	}
}

func resolveConflict(env *env, flow *reconcile.Flow, onConflict string) error {
	printMatches(flow.Matches())

	switch onConflict {
	case "abort":
		fmt.Println("Nothing written. Re-run with --on-conflict=force to commit anyway,")
		fmt.Println("or --on-conflict=discard to record the rejection.")
		return nil
	case "discard":
		if _, err := flow.Resolve(reconcile.DecisionDiscard); err != nil {
			return err
		}
		fmt.Println("Draft discarded; ledger unchanged.")
		entry := auditlog.Entry{
			Timestamp: time.Now(),
			Action:    auditlog.ActionDiscarded,
			Vendor:    flow.Record().Vendor.Name,
		}
		return auditlog.Append(env.root, []auditlog.Entry{entry})
	case "force":
		rec, err := flow.Resolve(reconcile.DecisionForceCommit)
		if err != nil {
			return err
		}
		return finishCommit(env, rec, auditlog.ActionForced, rec.Conflict.ConflictingIDs)
	default:
		return fmt.Errorf("invalid --on-conflict %q, want abort, discard or force", onConflict)
	}
}

func printMatches(matches []dedupe.Match) {
	fmt.Printf("Found %d possible duplicate(s):\n", len(matches))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  NUMBER\tDATE\tVENDOR\tTOTAL\tREASONS")
	for _, m := range matches {
		reasons := make([]string, len(m.Reasons))
		for i, r := range m.Reasons {
			reasons[i] = string(r)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			m.Record.Number,
			m.Record.IssueDate.Format(dateFormat),
			m.Record.Vendor.Name,
			m.Record.Total.StringFixed(2),
			strings.Join(reasons, ","))
	}
	w.Flush()
}

func finishCommit(env *env, rec model.InvoiceRecord, action auditlog.Action, conflictingIDs []string) error {
	fmt.Printf("Committed %s (%s, total %s)\n", rec.Number, rec.Vendor.Name, rec.Total.StringFixed(2))

	entry := auditlog.Entry{
		Timestamp:      time.Now(),
		Action:         action,
		InvoiceID:      rec.ID,
		Number:         rec.Number,
		Vendor:         rec.Vendor.Name,
		ConflictingIDs: conflictingIDs,
	}
	if err := auditlog.Append(env.root, []auditlog.Entry{entry}); err != nil {
		env.log.Warn().Err(err).Msg("writing decision log failed")
	}

	env.snapshot(fmt.Sprintf("invoice: add %s", rec.Number))
	return nil
}

func newInvoiceListCommand() *cobra.Command {
	var booksDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			records, err := env.repo.LoadAll()
			if err != nil {
				return err
			}
			printRecords(records)
			return nil
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	return cmd
}

func printRecords(records []model.InvoiceRecord) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tDATE\tVENDOR\tTOTAL\tSTATUS\tFLAGS")
	for _, rec := range records {
		flags := ""
		if rec.Conflict != nil && rec.Conflict.Forced {
			flags = "forced"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Number,
			rec.IssueDate.Format(dateFormat),
			rec.Vendor.Name,
			rec.Total.StringFixed(2),
			rec.Status,
			flags)
	}
	w.Flush()
}

func newInvoiceMarkPaidCommand() *cobra.Command {
	var booksDir string
	var date string

	cmd := &cobra.Command{
		Use:   "mark-paid <number-or-id>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}

			paidOn := time.Now()
			if date != "" {
				paidOn, err = time.Parse(dateFormat, date)
				if err != nil {
					return fmt.Errorf("parsing --date: %w", err)
				}
			}

			rec, err := env.repo.MarkPaid(args[0], paidOn)
			if err != nil {
				return err
			}
			notify.NewLogNotifier(env.log).InvoicePaid(rec)
			fmt.Printf("Marked %s as paid\n", rec.Number)
			env.snapshot(fmt.Sprintf("invoice: mark %s paid", rec.Number))
			return nil
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD, defaults to today")
	return cmd
}

func newInvoiceCancelCommand() *cobra.Command {
	var booksDir string

	cmd := &cobra.Command{
		Use:   "cancel <number-or-id>",
		Short: "Cancel an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			rec, err := env.repo.Cancel(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Cancelled %s\n", rec.Number)
			env.snapshot(fmt.Sprintf("invoice: cancel %s", rec.Number))
			return nil
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	return cmd
}

func newInvoiceOverdueCommand() *cobra.Command {
	var booksDir string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Flip pending invoices past their due date to overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(booksDir)
			if err != nil {
				return err
			}
			changed, err := env.repo.MarkOverdue(time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("%d invoice(s) marked overdue\n", changed)
			if changed > 0 {
				env.snapshot("invoice: overdue housekeeping")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&booksDir, "books", ".", "books directory")
	return cmd
}

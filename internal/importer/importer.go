// Package importer wires the statement pipeline end to end: scan sections,
// parse and normalize rows, filter duplicates, materialize ledger entry
// intents, and optionally hand the batch to a persistence boundary.
package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibikovilya/prior-import/internal/config"
	"github.com/bibikovilya/prior-import/internal/dedup"
	"github.com/bibikovilya/prior-import/internal/logging"
	"github.com/bibikovilya/prior-import/internal/materialize"
	"github.com/bibikovilya/prior-import/internal/models"
	"github.com/bibikovilya/prior-import/internal/parsererror"
	"github.com/bibikovilya/prior-import/internal/priorparser"
)

// ImportKind identifies this importer's runs in the dedup scope.
const ImportKind = "prior_statement"

// Options configure one import run.
type Options struct {
	Format config.StatementFormat

	// PinnedAccountLabel fixes the whole import to one account and narrows
	// the dedup scope to it. Empty means accounts come from section headers
	// and dedup spans the whole family.
	PinnedAccountLabel string

	// ImportID identifies the run; generated when empty. Used only to
	// exclude the run itself from the dedup lookup.
	ImportID string

	// SourceName labels the input in logs and the import record.
	SourceName string
}

// ImportRecord describes the run to the persistence boundary.
type ImportRecord struct {
	ID     string
	Kind   string
	Source string
}

// Report is the outcome of one run. The intent batch is only valid as a
// unit; callers must apply it atomically or not at all.
type Report struct {
	ImportID   string
	Rows       int
	Accepted   int
	Duplicates int
	Rejections []parsererror.Rejection

	// Inflow and Outflow are sums of accepted amounts, split by the
	// format's signage convention. Informational only.
	Inflow  decimal.Decimal
	Outflow decimal.Decimal

	Results []models.RowResult
	Intents []models.LedgerEntryIntent
}

// Persister applies a materialized batch in one all-or-nothing unit of work.
type Persister interface {
	ApplyBatch(ctx context.Context, rec ImportRecord, intents []models.LedgerEntryIntent) error
}

// Importer runs the import pipeline against injected collaborators.
type Importer struct {
	resolver materialize.Resolver
	notes    dedup.NotesSource
	logger   logging.Logger
}

// New creates an Importer over the given collaborators.
func New(resolver materialize.Resolver, notes dedup.NotesSource, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{resolver: resolver, notes: notes, logger: logger}
}

// Run parses the raw statement blob and materializes the intent batch
// without persisting anything. Per-row problems become counted rejections;
// only systemic failures (unreadable input, collaborator errors) are
// returned as errors.
func (i *Importer) Run(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	if opts.ImportID == "" {
		opts.ImportID = uuid.NewString()
	}
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}

	log := i.logger.WithField("import_id", opts.ImportID)

	parser := priorparser.New(opts.Format, log)
	results, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}

	scope := dedup.Scope{
		PinnedAccountLabel: opts.PinnedAccountLabel,
		ImportKind:         ImportKind,
		ExcludeImportID:    opts.ImportID,
	}
	results, err = dedup.New(i.notes, scope, log).Filter(ctx, results)
	if err != nil {
		return nil, fmt.Errorf("filtering duplicates: %w", err)
	}

	mat := materialize.New(i.resolver, log)
	if opts.PinnedAccountLabel != "" {
		pinned, err := i.resolver.ResolveAccount(ctx, opts.PinnedAccountLabel)
		if err != nil {
			return nil, fmt.Errorf("resolving pinned account %q: %w", opts.PinnedAccountLabel, err)
		}
		mat = mat.WithPinnedAccount(pinned)
	}

	intents, err := mat.Materialize(ctx, results)
	if err != nil {
		return nil, err
	}

	report := buildReport(opts, results, intents)
	log.Info("Import run complete",
		logging.Field{Key: "rows", Value: report.Rows},
		logging.Field{Key: "accepted", Value: report.Accepted},
		logging.Field{Key: "duplicates", Value: report.Duplicates},
		logging.Field{Key: "rejected", Value: len(report.Rejections)})
	return report, nil
}

// RunAndPersist runs the pipeline and applies the batch through the
// persister. A persistence failure aborts the whole batch; re-running the
// same input afterwards is safe because committed rows are filtered as
// duplicates.
func (i *Importer) RunAndPersist(ctx context.Context, r io.Reader, opts Options, persister Persister) (*Report, error) {
	report, err := i.Run(ctx, r, opts)
	if err != nil {
		return nil, err
	}

	rec := ImportRecord{ID: report.ImportID, Kind: ImportKind, Source: opts.SourceName}
	if err := persister.ApplyBatch(ctx, rec, report.Intents); err != nil {
		return nil, fmt.Errorf("applying import batch: %w", err)
	}
	return report, nil
}

func buildReport(opts Options, results []models.RowResult, intents []models.LedgerEntryIntent) *Report {
	report := &Report{
		ImportID: opts.ImportID,
		Rows:     len(results),
		Results:  results,
		Intents:  intents,
		Inflow:   decimal.Zero,
		Outflow:  decimal.Zero,
	}

	for _, res := range results {
		if res.Accepted() {
			report.Accepted++
			if isInflow(res.Row.Amount, opts.Format.Signage) {
				report.Inflow = report.Inflow.Add(res.Row.Amount.Abs())
			} else {
				report.Outflow = report.Outflow.Add(res.Row.Amount.Abs())
			}
			continue
		}
		if res.Rejected.Reason == parsererror.RejectDuplicate {
			report.Duplicates++
			continue
		}
		report.Rejections = append(report.Rejections, *res.Rejected)
	}
	return report
}

// isInflow interprets an amount's sign under the format's signage convention.
func isInflow(amount decimal.Decimal, signage config.SignageConvention) bool {
	if signage == config.InflowsNegative {
		return amount.IsNegative()
	}
	return amount.IsPositive()
}

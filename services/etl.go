package services

import (
	"context"
	"fmt"
	"time"

	"cafe-etl/config"
	"cafe-etl/metrics"
	"cafe-etl/models"
	"cafe-etl/source"
	"cafe-etl/storage"
	"cafe-etl/utils"
)

// RunnerOptions wires the pipeline together.
type RunnerOptions struct {
	Transform config.TransformConfig
	Opener    source.Opener
	// Writer may be nil in dry-run mode.
	Writer storage.BundleWriter
	DryRun bool

	Metrics         *metrics.BatchMetrics
	MetricsTextfile string
	PrintSummary    bool

	// NewID generates surrogate ids; nil means random UUIDs.
	NewID  func() string
	Logger utils.Diagnostics
}

// sinkCounter is implemented by storage.MultiWriter.
type sinkCounter interface {
	CountRows(ctx context.Context) (map[string]map[string]int64, error)
}

// Runner runs extract, transform and load over a list of input URIs.
type Runner struct {
	opts        RunnerOptions
	logger      utils.Diagnostics
	loader      *Loader
	transformer *Transformer
	summary     *SummaryService
}

func NewRunner(opts RunnerOptions) *Runner {
	if opts.Opener == nil {
		opts.Opener = source.NewResolver(nil)
	}
	return &Runner{
		opts:        opts,
		logger:      opts.Logger,
		loader:      NewLoader(opts.Transform, opts.Logger),
		transformer: NewTransformer(opts.Transform, opts.NewID, opts.Logger),
		summary:     NewSummaryService(opts.Logger),
	}
}

// Run executes the pipeline. It returns false without an error when there
// was nothing to load: no readable input, or no transaction survived the
// transform stage. Cancellation is only observed between stages.
func (r *Runner) Run(ctx context.Context, uris []string) (loaded bool, err error) {
	result := "failed"
	defer func() {
		r.opts.Metrics.Finish(result, time.Now())
		if werr := r.opts.Metrics.WriteTextfile(r.opts.MetricsTextfile); werr != nil {
			r.logger.Warn("[etl] Failed to write metrics textfile: %v", werr)
		}
	}()

	r.logger.Info("[etl] Pipeline started for %d input(s); transform settings: %s", len(uris), r.transformer)

	start := time.Now()
	rows, err := r.extract(ctx, uris)
	if err != nil {
		return false, err
	}
	r.opts.Metrics.ObserveStage("extract", time.Since(start))
	r.opts.Metrics.AddRows("extracted", len(rows))

	if len(rows) == 0 {
		r.logger.Warn("[etl] No data extracted. Pipeline stopped.")
		result = "empty"
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("etl: cancelled before transform: %w", err)
	}

	start = time.Now()
	bundle := r.transformer.Transform(rows)
	r.opts.Metrics.ObserveStage("transform", time.Since(start))

	if bundle.IsEmpty() {
		r.logger.Warn("[etl] Transformation produced no transactions. Pipeline stopped.")
		r.opts.Metrics.AddRows("dropped", len(rows))
		result = "empty"
		return false, nil
	}
	r.recordBundle(len(rows), bundle)

	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("etl: cancelled before load: %w", err)
	}

	if r.opts.DryRun || r.opts.Writer == nil {
		r.logger.Info("[etl] Dry run: %d transactions transformed, load skipped.", len(bundle.FinalTransactions))
		result = "dry_run"
	} else {
		start = time.Now()
		if err := r.opts.Writer.Write(ctx, bundle); err != nil {
			return false, fmt.Errorf("etl: load: %w", err)
		}
		r.opts.Metrics.ObserveStage("load", time.Since(start))
		r.opts.Metrics.AddRows("loaded", len(bundle.FinalTransactions))
		r.logCounts(ctx)
		result = "loaded"
	}

	report := r.summary.Generate(bundle)
	if r.opts.PrintSummary {
		r.summary.Print(report)
	}
	r.logger.Info("[etl] Pipeline finished: %d transactions, revenue %s",
		report.Transactions, report.TotalRevenue.StringFixed(2))
	return true, nil
}

// extract reads every input in order. Missing and empty inputs are skipped.
func (r *Runner) extract(ctx context.Context, uris []string) ([]models.ExtractedRow, error) {
	var all []models.ExtractedRow
	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("etl: cancelled during extract: %w", err)
		}
		rows, ok, err := r.loader.LoadURI(ctx, r.opts.Opener, uri)
		if err != nil {
			return nil, fmt.Errorf("etl: extract: %w", err)
		}
		if !ok {
			continue
		}
		if len(rows) == 0 {
			r.logger.Warn("[etl] No rows extracted from %s; skipping.", uri)
			continue
		}
		all = append(all, rows...)
	}
	return all, nil
}

func (r *Runner) recordBundle(extracted int, b *models.Bundle) {
	m := r.opts.Metrics
	m.AddRows("transformed", len(b.FinalTransactions))
	m.AddRows("dropped", extracted-len(b.FinalTransactions))
	m.SetEntities(storage.TableBranches, len(b.BranchData.BranchesTable))
	m.SetEntities(storage.TableProducts, len(b.ProductData.ProductsTable))
	m.SetEntities(storage.TableTransactions, len(b.FinalTransactions))
	m.SetEntities(storage.TableTransactionProduct, len(b.ProductData.TransactionProductTable))
}

func (r *Runner) logCounts(ctx context.Context) {
	counter, ok := r.opts.Writer.(sinkCounter)
	if !ok {
		return
	}
	counts, err := counter.CountRows(ctx)
	if err != nil {
		r.logger.Warn("[etl] Could not read table counts: %v", err)
	}
	for sink, tables := range counts {
		for _, table := range storage.Tables {
			r.logger.Info("[etl] %s.%s now holds %d rows", sink, table, tables[table])
		}
	}
}

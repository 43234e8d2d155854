package services

import (
	"fmt"

	"cafe-etl/config"
	"cafe-etl/models"
	"cafe-etl/utils"
)

// Transformer runs the transform stage: redaction, required-field filtering,
// product parsing, deduplication and entity normalisation.
type Transformer struct {
	cfg    config.TransformConfig
	logger utils.Diagnostics
	newID  func() string

	redactor *Redactor
	parser   *ProductParser
	dedup    *Deduplicator
}

// NewTransformer creates a Transformer. newID may be nil for random UUIDs.
func NewTransformer(cfg config.TransformConfig, newID func() string, logger utils.Diagnostics) *Transformer {
	return &Transformer{
		cfg:      cfg,
		logger:   logger,
		newID:    newID,
		redactor: NewRedactor(cfg.SensitiveFields, cfg.RequiredFields, logger),
		parser:   NewProductParser(cfg.SizeSet(), logger),
		dedup:    NewDeduplicator(logger),
	}
}

// Transform turns extracted rows into the output bundle. It never fails: an
// empty input, a batch with no valid rows, or an unexpected internal error
// all yield the empty bundle, which callers treat as nothing to load.
func (t *Transformer) Transform(rows []models.ExtractedRow) (bundle *models.Bundle) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("[transform] Failed to process transactions: %v", r)
			bundle = models.EmptyBundle()
		}
	}()

	t.logger.Info("[transform] Starting transaction processing of %d records...", len(rows))

	cleaned := t.redactor.FilterRequired(t.redactor.Redact(rows))
	if len(cleaned) == 0 {
		t.logger.Warn("[transform] No valid records found after filtering. Exiting transformation early.")
		return models.EmptyBundle()
	}

	parsed := t.parser.ParseAll(cleaned)
	unique := t.dedup.Dedupe(parsed)

	arena := NewArena(t.newID, t.logger)
	branches, withBranch := arena.NormaliseBranches(unique)
	products, withProduct, junction := arena.NormaliseProducts(withBranch)

	t.logger.Info("[transform] Transaction processing and normalisation complete: %d transactions, %d branches, %d products",
		len(withProduct), len(branches), len(products))

	return &models.Bundle{
		FinalTransactions: withProduct,
		BranchData: models.BranchData{
			BranchesTable:            branches,
			TransactionsWithBranchID: withBranch,
		},
		ProductData: models.ProductData{
			ProductsTable:             products,
			TransactionsWithProductID: withProduct,
			TransactionProductTable:   junction,
		},
	}
}

// String describes the transform settings for startup logs.
func (t *Transformer) String() string {
	return fmt.Sprintf("sizes=%v required=%v sensitive=%v", t.cfg.KnownSizes, t.cfg.RequiredFields, t.cfg.SensitiveFields)
}

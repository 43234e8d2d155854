package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// CSVWriter exports the four normalised tables as CSV files named after the
// first branch of the batch, e.g. output/branch-Leeds.csv.
type CSVWriter struct {
	dir    string
	logger utils.Diagnostics
}

// NewCSVWriter creates the output directory if needed.
func NewCSVWriter(dir string, logger utils.Diagnostics) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir, logger: logger}, nil
}

// FileNames returns the per-table file names for a batch whose first branch
// is branchName.
func FileNames(branchName string) map[string]string {
	suffix := strings.ReplaceAll(branchName, " ", "_")
	return map[string]string{
		TableTransactions:       "transaction-" + suffix + ".csv",
		TableBranches:           "branch-" + suffix + ".csv",
		TableProducts:           "product-" + suffix + ".csv",
		TableTransactionProduct: "transaction_product-" + suffix + ".csv",
	}
}

func (c *CSVWriter) Write(_ context.Context, b *models.Bundle) error {
	if len(b.BranchData.BranchesTable) == 0 {
		c.logger.Error("[csv] No branch data available for filename generation.")
		return nil
	}
	names := FileNames(b.BranchData.BranchesTable[0].Name)

	tables := []struct {
		table  string
		header []string
		rows   [][]string
	}{
		{TableTransactions, []string{"id", "branch_id", "date_time", "price", "qty", "payment_type", "product_id", "product"}, transactionRows(b.FinalTransactions)},
		{TableBranches, []string{"id", "name"}, branchRows(b.BranchData.BranchesTable)},
		{TableProducts, []string{"id", "product_name", "size", "flavour", "price"}, productRows(b.ProductData.ProductsTable)},
		{TableTransactionProduct, []string{"id", "transaction_id", "product_id"}, junctionRows(b.ProductData.TransactionProductTable)},
	}

	for _, t := range tables {
		path := filepath.Join(c.dir, names[t.table])
		if len(t.rows) == 0 {
			c.logger.Warn("[csv] No data available to write to %s", path)
			continue
		}
		if err := writeCSVFile(path, t.header, t.rows); err != nil {
			return err
		}
		c.logger.Info("[csv] CSV file written: %s", path)
	}
	return nil
}

func (c *CSVWriter) Close() error { return nil }

func writeCSVFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write rows: %w", err)
	}
	return f.Close()
}

func transactionRows(txs []models.FinalTransaction) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{t.ID, t.BranchID, t.DateTime, t.Price, t.Qty, t.PaymentType, t.ProductID, t.Product})
	}
	return rows
}

func branchRows(branches []models.Branch) [][]string {
	rows := make([][]string, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, []string{b.ID, b.Name})
	}
	return rows
}

func productRows(products []models.Product) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{p.ID, p.ProductName, p.Size, p.Flavour, p.Price.StringFixed(2)})
	}
	return rows
}

func junctionRows(links []models.TransactionProduct) [][]string {
	rows := make([][]string, 0, len(links))
	for _, l := range links {
		rows = append(rows, []string{l.ID, l.TransactionID, l.ProductID})
	}
	return rows
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// PostgresWriter persists a transformed batch to PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger utils.Diagnostics
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig, logger utils.Diagnostics) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	logger.Info("[postgres] Connected to the database successfully.")
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS branches (
			id   VARCHAR(36)  PRIMARY KEY,
			name VARCHAR(255) NOT NULL
		);

		CREATE TABLE IF NOT EXISTS products (
			id           VARCHAR(36)   PRIMARY KEY,
			product_name VARCHAR(255)  NOT NULL,
			size         VARCHAR(50)   NOT NULL DEFAULT '',
			flavour      VARCHAR(100)  NOT NULL DEFAULT '',
			price        NUMERIC(10,2) NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS transactions (
			id           VARCHAR(36)   PRIMARY KEY,
			branch_id    VARCHAR(36)   NOT NULL REFERENCES branches(id),
			date_time    VARCHAR(50)   NOT NULL,
			price        NUMERIC(10,2) NOT NULL DEFAULT 0,
			qty          INTEGER       NOT NULL DEFAULT 1,
			payment_type VARCHAR(20)   NOT NULL
		);

		CREATE TABLE IF NOT EXISTS transaction_product (
			id             VARCHAR(36) PRIMARY KEY,
			transaction_id VARCHAR(36) NOT NULL REFERENCES transactions(id),
			product_id     VARCHAR(36) NOT NULL REFERENCES products(id)
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_branch        ON transactions(branch_id);
		CREATE INDEX IF NOT EXISTS idx_transaction_product_tx     ON transaction_product(transaction_id);
		CREATE INDEX IF NOT EXISTS idx_transaction_product_product ON transaction_product(product_id);
	`)
	return err
}

// Write inserts the whole bundle in one database transaction, parents first.
// Rows whose id already exists are left untouched.
func (pw *PostgresWriter) Write(ctx context.Context, b *models.Bundle) error {
	if b.IsEmpty() {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	batches := []struct {
		table string
		cols  []string
		rows  [][]any
	}{
		{TableBranches, []string{"id", "name"}, branchArgs(b.BranchData.BranchesTable)},
		{TableProducts, []string{"id", "product_name", "size", "flavour", "price"}, productArgs(b.ProductData.ProductsTable)},
		{TableTransactions, []string{"id", "branch_id", "date_time", "price", "qty", "payment_type"}, transactionArgs(b.FinalTransactions)},
		{TableTransactionProduct, []string{"id", "transaction_id", "product_id"}, junctionArgs(b.ProductData.TransactionProductTable)},
	}

	for _, batch := range batches {
		if err := insertRows(ctx, tx, batch.table, batch.cols, batch.rows); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", batch.table, err)
		}
		pw.logger.Info("[postgres] Inserted %d records into %s table.", len(batch.rows), batch.table)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// insertRows batch-inserts rows using multi-row VALUES lists.
func insertRows(ctx context.Context, tx *sql.Tx, table string, cols []string, rows [][]any) error {
	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertBatch(ctx, tx, table, cols, rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, cols []string, batch [][]any) error {
	width := len(cols)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)

	for idx, row := range batch {
		placeholders := make([]string, width)
		for c := 0; c < width; c++ {
			placeholders[c] = fmt.Sprintf("$%d", idx*width+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, table, strings.Join(cols, ", "), strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// CountRows reports the row count of every table.
func (pw *PostgresWriter) CountRows(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		if err := pw.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("postgres: count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func branchArgs(branches []models.Branch) [][]any {
	rows := make([][]any, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, []any{b.ID, b.Name})
	}
	return rows
}

func productArgs(products []models.Product) [][]any {
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.ID, p.ProductName, p.Size, p.Flavour, p.Price})
	}
	return rows
}

func transactionArgs(txs []models.FinalTransaction) [][]any {
	rows := make([][]any, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []any{t.ID, t.BranchID, t.DateTime, t.Price, t.Qty, t.PaymentType})
	}
	return rows
}

func junctionArgs(links []models.TransactionProduct) [][]any {
	rows := make([][]any, 0, len(links))
	for _, l := range links {
		rows = append(rows, []any{l.ID, l.TransactionID, l.ProductID})
	}
	return rows
}

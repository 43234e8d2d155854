package storage

import (
	"context"

	"cafe-etl/models"
)

// BundleWriter is the interface any storage backend must satisfy.
type BundleWriter interface {
	Write(ctx context.Context, bundle *models.Bundle) error
	Close() error
}

// RowCounter is implemented by relational sinks that can report how many rows
// each table holds after a load.
type RowCounter interface {
	CountRows(ctx context.Context) (map[string]int64, error)
}

// Table names shared by every relational sink.
const (
	TableBranches           = "branches"
	TableProducts           = "products"
	TableTransactions       = "transactions"
	TableTransactionProduct = "transaction_product"
)

// Tables lists the tables in load order: parents before the junction table.
var Tables = []string{TableBranches, TableProducts, TableTransactions, TableTransactionProduct}

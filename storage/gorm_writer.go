package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"cafe-etl/models"
	"cafe-etl/utils"
)

type branchRecord struct {
	ID   string `gorm:"primaryKey;size:36"`
	Name string `gorm:"size:255;not null"`
}

func (branchRecord) TableName() string { return TableBranches }

type productRecord struct {
	ID          string          `gorm:"primaryKey;size:36"`
	ProductName string          `gorm:"size:255;not null"`
	Size        string          `gorm:"size:50;not null;default:''"`
	Flavour     string          `gorm:"size:100;not null;default:''"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

func (productRecord) TableName() string { return TableProducts }

type transactionRecord struct {
	ID          string          `gorm:"primaryKey;size:36"`
	BranchID    string          `gorm:"size:36;not null;index"`
	DateTime    string          `gorm:"size:50;not null"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Qty         int             `gorm:"not null;default:1"`
	PaymentType string          `gorm:"size:20;not null"`
}

func (transactionRecord) TableName() string { return TableTransactions }

type transactionProductRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	TransactionID string `gorm:"size:36;not null;index"`
	ProductID     string `gorm:"size:36;not null;index"`
}

func (transactionProductRecord) TableName() string { return TableTransactionProduct }

// GormWriter persists a transformed batch through GORM. It is used with the
// SQLite driver for local runs and tests.
type GormWriter struct {
	db     *gorm.DB
	logger utils.Diagnostics
}

// NewSQLiteWriter opens (or creates) the SQLite database at path.
func NewSQLiteWriter(path string, logger utils.Diagnostics) (*GormWriter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	return NewGormWriter(sqlite.Open(path), logger)
}

// NewGormWriter opens dialector and migrates the four tables.
func NewGormWriter(dialector gorm.Dialector, logger utils.Diagnostics) (*GormWriter, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: open: %w", err)
	}
	if err := db.AutoMigrate(&branchRecord{}, &productRecord{}, &transactionRecord{}, &transactionProductRecord{}); err != nil {
		return nil, fmt.Errorf("gorm: migrate: %w", err)
	}
	return &GormWriter{db: db, logger: logger}, nil
}

// Write inserts the whole bundle in one transaction. Existing ids are skipped.
func (gw *GormWriter) Write(ctx context.Context, b *models.Bundle) error {
	if b.IsEmpty() {
		return nil
	}

	txs, err := toTransactionRecords(b.FinalTransactions)
	if err != nil {
		return err
	}

	return gw.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{DoNothing: true})

		if err := createAll(ins, TableBranches, toBranchRecords(b.BranchData.BranchesTable)); err != nil {
			return err
		}
		gw.logger.Info("[gorm] Inserted %d records into %s table.", len(b.BranchData.BranchesTable), TableBranches)

		if err := createAll(ins, TableProducts, toProductRecords(b.ProductData.ProductsTable)); err != nil {
			return err
		}
		gw.logger.Info("[gorm] Inserted %d records into %s table.", len(b.ProductData.ProductsTable), TableProducts)

		if err := createAll(ins, TableTransactions, txs); err != nil {
			return err
		}
		gw.logger.Info("[gorm] Inserted %d records into %s table.", len(txs), TableTransactions)

		if err := createAll(ins, TableTransactionProduct, toJunctionRecords(b.ProductData.TransactionProductTable)); err != nil {
			return err
		}
		gw.logger.Info("[gorm] Inserted %d records into %s table.", len(b.ProductData.TransactionProductTable), TableTransactionProduct)
		return nil
	})
}

func createAll[T any](tx *gorm.DB, table string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("gorm: insert %s: %w", table, err)
	}
	return nil
}

// CountRows reports the row count of every table.
func (gw *GormWriter) CountRows(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		if err := gw.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("gorm: count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (gw *GormWriter) Close() error {
	sqlDB, err := gw.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toBranchRecords(branches []models.Branch) []branchRecord {
	out := make([]branchRecord, 0, len(branches))
	for _, b := range branches {
		out = append(out, branchRecord{ID: b.ID, Name: b.Name})
	}
	return out
}

func toProductRecords(products []models.Product) []productRecord {
	out := make([]productRecord, 0, len(products))
	for _, p := range products {
		out = append(out, productRecord{ID: p.ID, ProductName: p.ProductName, Size: p.Size, Flavour: p.Flavour, Price: p.Price})
	}
	return out
}

func toTransactionRecords(txs []models.FinalTransaction) ([]transactionRecord, error) {
	out := make([]transactionRecord, 0, len(txs))
	for _, t := range txs {
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return nil, fmt.Errorf("gorm: transaction %s: price %q: %w", t.ID, t.Price, err)
		}
		qty, err := strconv.Atoi(t.Qty)
		if err != nil {
			return nil, fmt.Errorf("gorm: transaction %s: qty %q: %w", t.ID, t.Qty, err)
		}
		out = append(out, transactionRecord{
			ID:          t.ID,
			BranchID:    t.BranchID,
			DateTime:    t.DateTime,
			Price:       price,
			Qty:         qty,
			PaymentType: t.PaymentType,
		})
	}
	return out, nil
}

func toJunctionRecords(links []models.TransactionProduct) []transactionProductRecord {
	out := make([]transactionProductRecord, 0, len(links))
	for _, l := range links {
		out = append(out, transactionProductRecord{ID: l.ID, TransactionID: l.TransactionID, ProductID: l.ProductID})
	}
	return out
}

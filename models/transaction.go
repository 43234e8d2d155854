package models

import "github.com/shopspring/decimal"

// RawRow holds one unprocessed line of a POS export, in file column order.
type RawRow struct {
	DateTime     string
	Branch       string
	CustomerName string
	Product      string
	Price        string
	PaymentType  string
	CardNumber   string
}

// ExtractedRow is a RawRow after field renaming, price normalisation and the
// default quantity injection. It still carries PII.
type ExtractedRow struct {
	CustomerName string `json:"customer_name"`
	Product      string `json:"product"`
	Qty          string `json:"qty"`
	Price        string `json:"price"`
	Branch       string `json:"branch"`
	PaymentType  string `json:"payment_type"`
	CardNumber   string `json:"card_number"`
	DateTime     string `json:"date_time"`
}

// CleanedRow is a redacted row that passed the required-field filter.
// It has no PII columns.
type CleanedRow struct {
	Product     string `json:"product"`
	Qty         string `json:"qty"`
	Price       string `json:"price"`
	Branch      string `json:"branch"`
	PaymentType string `json:"payment_type"`
	DateTime    string `json:"date_time"`
}

// ParsedProduct is one line item recovered from a product text cell.
type ParsedProduct struct {
	Size        string          `json:"size"`
	ProductName string          `json:"product_name"`
	Flavour     string          `json:"flavour"`
	Price       decimal.Decimal `json:"price"`
}

// ParsedRow is a CleanedRow whose product text has been parsed. Products is
// nil when no line item could be parsed.
type ParsedRow struct {
	CleanedRow
	Products []ParsedProduct `json:"parsed_products,omitempty"`
}

// HasProducts reports whether at least one line item was parsed.
func (r ParsedRow) HasProducts() bool {
	return len(r.Products) > 0
}

// BranchedTransaction is a ParsedRow that received its surrogate id and had
// its branch name replaced by a branch id.
type BranchedTransaction struct {
	ID          string          `json:"id"`
	BranchID    string          `json:"branch_id"`
	DateTime    string          `json:"date_time"`
	Product     string          `json:"product"`
	Price       string          `json:"price"`
	Qty         string          `json:"qty"`
	PaymentType string          `json:"payment_type"`
	Products    []ParsedProduct `json:"parsed_products,omitempty"`
}

// FinalTransaction is the terminal transaction record handed to the sinks.
// ProductID is empty and Product keeps the raw text when the transaction had
// no parsed line items.
type FinalTransaction struct {
	ID          string `json:"id"`
	BranchID    string `json:"branch_id"`
	DateTime    string `json:"date_time"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	PaymentType string `json:"payment_type"`
	ProductID   string `json:"product_id,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Branch is a café location.
type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry. Price is the first observed price.
type Product struct {
	ID          string          `json:"id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Flavour     string          `json:"flavour"`
	Price       decimal.Decimal `json:"price"`
}

// TransactionProduct links one transaction to one line item's product.
type TransactionProduct struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
}

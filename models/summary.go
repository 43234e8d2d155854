package models

import "github.com/shopspring/decimal"

// BranchSummary aggregates the transactions of one branch.
type BranchSummary struct {
	Name         string
	Transactions int
	Revenue      decimal.Decimal
}

// ProductSummary counts how often a catalog product was sold.
type ProductSummary struct {
	Label     string
	LineItems int
}

// BatchSummary holds the computed figures over one transformed batch.
type BatchSummary struct {
	Transactions         int
	Branches             int
	Products             int
	LineItems            int
	UnparsedTransactions int
	TotalRevenue         decimal.Decimal
	AverageTicket        decimal.Decimal
	ByBranch             []BranchSummary
	TopProducts          []ProductSummary
	ByPaymentType        map[string]int
}

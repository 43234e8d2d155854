package storage

import (
	"github.com/shopspring/decimal"

	"cafe-etl/models"
)

func sampleBundle() *models.Bundle {
	return &models.Bundle{
		FinalTransactions: []models.FinalTransaction{
			{ID: "t1", BranchID: "b1", DateTime: "25/08/2021 09:00", Price: "4.95", Qty: "1", PaymentType: "CARD", ProductID: "p1, p2"},
			{ID: "t2", BranchID: "b1", DateTime: "25/08/2021 09:02", Price: "4.00", Qty: "1", PaymentType: "CASH", Product: "Mystery item"},
		},
		BranchData: models.BranchData{
			BranchesTable: []models.Branch{{ID: "b1", Name: "Leeds City"}},
		},
		ProductData: models.ProductData{
			ProductsTable: []models.Product{
				{ID: "p1", ProductName: "latte", Size: "large", Flavour: "Hazelnut", Price: decimal.RequireFromString("2.45")},
				{ID: "p2", ProductName: "iced latte", Price: decimal.RequireFromString("2.5")},
			},
			TransactionProductTable: []models.TransactionProduct{
				{ID: "j1", TransactionID: "t1", ProductID: "p1"},
				{ID: "j2", TransactionID: "t1", ProductID: "p2"},
			},
		},
	}
}

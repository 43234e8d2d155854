package models

// BranchData is the output of branch normalisation.
type BranchData struct {
	BranchesTable            []Branch              `json:"branches_table"`
	TransactionsWithBranchID []BranchedTransaction `json:"transactions_with_branch_id"`
}

// ProductData is the output of product normalisation.
type ProductData struct {
	ProductsTable             []Product            `json:"products_table"`
	TransactionsWithProductID []FinalTransaction   `json:"transactions_with_product_id"`
	TransactionProductTable   []TransactionProduct `json:"transaction_product_table"`
}

// Bundle is everything the transform stage hands to the load stage.
type Bundle struct {
	FinalTransactions []FinalTransaction `json:"final_transactions"`
	BranchData        BranchData         `json:"branch_data"`
	ProductData       ProductData        `json:"product_data"`
}

// EmptyBundle returns a bundle with every table present and empty.
func EmptyBundle() *Bundle {
	return &Bundle{
		FinalTransactions: []FinalTransaction{},
		BranchData: BranchData{
			BranchesTable:            []Branch{},
			TransactionsWithBranchID: []BranchedTransaction{},
		},
		ProductData: ProductData{
			ProductsTable:             []Product{},
			TransactionsWithProductID: []FinalTransaction{},
			TransactionProductTable:   []TransactionProduct{},
		},
	}
}

// IsEmpty reports whether there is nothing to load.
func (b *Bundle) IsEmpty() bool {
	return b == nil || len(b.FinalTransactions) == 0
}

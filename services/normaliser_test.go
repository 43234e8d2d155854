package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-etl/models"
	"cafe-etl/utils"
)

func TestArenaBranchIDStable(t *testing.T) {
	a := NewArena(sequentialIDs(), utils.NewNopLogger())

	leeds, created := a.BranchID("Leeds")
	assert.True(t, created)
	again, created := a.BranchID("Leeds")
	assert.False(t, created)
	assert.Equal(t, leeds, again)

	york, _ := a.BranchID("York")
	assert.NotEqual(t, leeds, york)
}

func TestArenaDefaultsToUUIDs(t *testing.T) {
	a := NewArena(nil, utils.NewNopLogger())
	id, _ := a.BranchID("Leeds")
	assert.Len(t, id, 36)
}

func TestNormaliseBranches(t *testing.T) {
	rows := []models.ParsedRow{
		{CleanedRow: cleanedRow("Latte - 2.45", "2.45", "Leeds")},
		{CleanedRow: cleanedRow("Tea - 1.20", "1.20", " York ")},
		{CleanedRow: cleanedRow("Mocha - 3.00", "3.00", "Leeds")},
		{CleanedRow: cleanedRow("Scone - 1.00", "1.00", "  ")},
	}

	a := NewArena(sequentialIDs(), utils.NewNopLogger())
	branches, txs := a.NormaliseBranches(rows)

	require.Len(t, branches, 2)
	assert.Equal(t, "Leeds", branches[0].Name)
	assert.Equal(t, "York", branches[1].Name)
	assert.NotEqual(t, branches[0].ID, branches[1].ID)

	require.Len(t, txs, 3)
	assert.Equal(t, branches[0].ID, txs[0].BranchID)
	assert.Equal(t, branches[1].ID, txs[1].BranchID)
	assert.Equal(t, branches[0].ID, txs[2].BranchID)

	seen := map[string]bool{}
	for _, tx := range txs {
		assert.NotEmpty(t, tx.ID)
		assert.False(t, seen[tx.ID], "transaction ids must be unique")
		seen[tx.ID] = true
	}
}

func TestNormaliseProductsCollapsesCatalogEntries(t *testing.T) {
	latte := models.ParsedProduct{Size: "large", ProductName: "latte", Flavour: "Hazelnut", Price: decimal.RequireFromString("2.45")}
	latteAgain := models.ParsedProduct{Size: "LARGE", ProductName: "Latte", Flavour: "hazelnut", Price: decimal.RequireFromString("2.60")}
	tea := models.ParsedProduct{ProductName: "tea", Price: decimal.RequireFromString("1.20")}

	txs := []models.BranchedTransaction{
		{ID: "tx-1", BranchID: "b-1", Price: "3.65", Qty: "1", PaymentType: "CARD", Products: []models.ParsedProduct{latte, tea}},
		{ID: "tx-2", BranchID: "b-1", Price: "2.60", Qty: "1", PaymentType: "CASH", Products: []models.ParsedProduct{latteAgain}},
		{ID: "tx-3", BranchID: "b-1", Price: "4.00", Qty: "1", PaymentType: "CASH", Product: "Mystery item"},
	}

	a := NewArena(sequentialIDs(), utils.NewNopLogger())
	products, final, junction := a.NormaliseProducts(txs)

	require.Len(t, products, 2)
	assert.Equal(t, "latte", products[0].ProductName)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("2.45")), "first observed price wins")
	assert.Equal(t, "tea", products[1].ProductName)

	require.Len(t, final, 3)
	assert.Equal(t, products[0].ID+", "+products[1].ID, final[0].ProductID)
	assert.Equal(t, products[0].ID, final[1].ProductID)
	assert.Empty(t, final[0].Product)

	assert.Empty(t, final[2].ProductID)
	assert.Equal(t, "Mystery item", final[2].Product)

	require.Len(t, junction, 3)
	var latteLinks int
	for _, link := range junction {
		if link.ProductID == products[0].ID {
			latteLinks++
		}
	}
	assert.Equal(t, 2, latteLinks)
	assert.Equal(t, "tx-2", junction[2].TransactionID)
}

func TestNormaliseProductsEmpty(t *testing.T) {
	a := NewArena(sequentialIDs(), utils.NewNopLogger())
	products, final, junction := a.NormaliseProducts(nil)

	assert.NotNil(t, products)
	assert.NotNil(t, final)
	assert.NotNil(t, junction)
	assert.Empty(t, final)
}

package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-etl/models"
	"cafe-etl/utils"
)

func newTestParser() *ProductParser {
	return NewProductParser(testTransformConfig().SizeSet(), utils.NewNopLogger())
}

func TestParseSimpleEntry(t *testing.T) {
	got := newTestParser().Parse(cleanedRow("iced latte - 2.50", "2.50", "Leeds"))

	require.Len(t, got.Products, 1)
	item := got.Products[0]
	assert.Equal(t, "iced latte", item.ProductName)
	assert.Empty(t, item.Size)
	assert.Empty(t, item.Flavour)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "2.50", got.Price)
}

func TestParseSizedFlavouredEntry(t *testing.T) {
	got := newTestParser().Parse(cleanedRow("Large Latte - Hazelnut - 2.45", "2.45", "Leeds"))

	require.Len(t, got.Products, 1)
	assert.Equal(t, "large", got.Products[0].Size)
	assert.Equal(t, "latte", got.Products[0].ProductName)
	assert.Equal(t, "Hazelnut", got.Products[0].Flavour)
	assert.Equal(t, "2.45", got.Products[0].Price.StringFixed(2))
}

func TestParseUnknownSizeStaysInName(t *testing.T) {
	got := newTestParser().Parse(cleanedRow("Venti Mocha - Caramel - 3.10", "3.10", "Leeds"))

	require.Len(t, got.Products, 1)
	assert.Empty(t, got.Products[0].Size)
	assert.Equal(t, "venti mocha", got.Products[0].ProductName)
}

func TestParseMultipleEntriesSumsPrice(t *testing.T) {
	row := cleanedRow("Regular Flavoured iced latte - Hazelnut - 2.75, Large Latte - 2.45", "9.99", "Leeds")
	got := newTestParser().Parse(row)

	require.Len(t, got.Products, 2)
	assert.Equal(t, models.ParsedProduct{
		Size: "regular", ProductName: "flavoured iced latte", Flavour: "Hazelnut",
		Price: got.Products[0].Price,
	}, got.Products[0])
	assert.Equal(t, "large latte", got.Products[1].ProductName)
	assert.Empty(t, got.Products[1].Size, "size is only recognised when a flavour segment is present")
	assert.Equal(t, "5.20", got.Price)
}

func TestParseSkipsInvalidEntries(t *testing.T) {
	row := cleanedRow("Latte, Mocha - free, Tea - 1.20", "5.00", "Leeds")
	got := newTestParser().Parse(row)

	require.Len(t, got.Products, 1)
	assert.Equal(t, "tea", got.Products[0].ProductName)
	assert.Equal(t, "1.20", got.Price)
}

func TestParseNothingParsableKeepsRow(t *testing.T) {
	row := cleanedRow("Mystery item", "4.00", "Leeds")
	got := newTestParser().Parse(row)

	assert.Nil(t, got.Products)
	assert.False(t, got.HasProducts())
	assert.Equal(t, "4.00", got.Price)
	assert.Equal(t, "Mystery item", got.Product)
}

func TestParsePriceRoundTrip(t *testing.T) {
	got := newTestParser().Parse(cleanedRow("Latte - 2.5", "2.50", "Leeds"))

	require.Len(t, got.Products, 1)
	assert.Equal(t, "2.50", got.Products[0].Price.StringFixed(2))
}

func TestStandardiseProductName(t *testing.T) {
	assert.Equal(t, "flat white", StandardiseProductName("  Flat White "))
}

func TestParseExtraSeparatorsDropEntry(t *testing.T) {
	got := newTestParser().Parse(cleanedRow("Large Latte - Hazelnut - Extra - 2.45", "2.45", "Leeds"))

	assert.Empty(t, got.Products)
	assert.False(t, got.HasProducts())
	assert.Equal(t, "2.45", got.Price)
}

func TestParseExtraSeparatorsKeepSiblingEntries(t *testing.T) {
	row := cleanedRow("Large Latte - Hazelnut - Extra - 2.45, Regular Tea - Mint - 1.20", "3.65", "Leeds")
	got := newTestParser().Parse(row)

	require.Len(t, got.Products, 1)
	assert.Equal(t, "regular", got.Products[0].Size)
	assert.Equal(t, "tea", got.Products[0].ProductName)
	assert.Equal(t, "Mint", got.Products[0].Flavour)
	assert.Equal(t, "1.20", got.Price)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-etl/models"
	"cafe-etl/utils"
)

func extractedRows() []models.ExtractedRow {
	return []models.ExtractedRow{
		{
			CustomerName: "Richard Copeland", Product: "Large Latte - 2.45", Qty: "1", Price: "2.45",
			Branch: "Chesterfield", PaymentType: "CARD", CardNumber: "5494173772652516", DateTime: "25/08/2021 09:00",
		},
		{
			CustomerName: "Scott Owens", Product: "", Qty: "1", Price: "1.20",
			Branch: "Chesterfield", PaymentType: "CASH", DateTime: "25/08/2021 09:02",
		},
	}
}

func TestRedactClearsSensitiveFieldsWithoutMutatingInput(t *testing.T) {
	in := extractedRows()
	r := NewRedactor([]string{"customer_name", "Card Number", "loyalty_id"}, nil, utils.NewNopLogger())

	out := r.Redact(in)
	require.Len(t, out, 2)
	for _, row := range out {
		assert.Empty(t, row.CustomerName)
		assert.Empty(t, row.CardNumber)
	}
	assert.Equal(t, "Large Latte - 2.45", out[0].Product)

	assert.Equal(t, "Richard Copeland", in[0].CustomerName)
	assert.Equal(t, "5494173772652516", in[0].CardNumber)
}

func TestRedactDefaultsSensitiveFields(t *testing.T) {
	r := NewRedactor(nil, nil, utils.NewNopLogger())
	out := r.Redact(extractedRows())

	assert.Empty(t, out[0].CustomerName)
	assert.Empty(t, out[0].CardNumber)
}

func TestFilterRequiredDropsIncompleteRows(t *testing.T) {
	cfg := testTransformConfig()
	r := NewRedactor(cfg.SensitiveFields, cfg.RequiredFields, utils.NewNopLogger())

	cleaned := r.FilterRequired(r.Redact(extractedRows()))
	require.Len(t, cleaned, 1)
	assert.Equal(t, models.CleanedRow{
		Product: "Large Latte - 2.45", Qty: "1", Price: "2.45",
		Branch: "Chesterfield", PaymentType: "CARD", DateTime: "25/08/2021 09:00",
	}, cleaned[0])
}

func TestFilterRequiredUnknownFieldDropsEverything(t *testing.T) {
	r := NewRedactor(nil, []string{"loyalty_id"}, utils.NewNopLogger())

	cleaned := r.FilterRequired(extractedRows())
	assert.NotNil(t, cleaned)
	assert.Empty(t, cleaned)
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "date_time", fieldKey("Date/Time"))
	assert.Equal(t, "payment_type", fieldKey(" Payment Type "))
	assert.Equal(t, "card_number", fieldKey("card-number"))
}

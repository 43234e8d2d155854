package services

import (
	"strings"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// DefaultSensitiveFields are redacted when no explicit list is configured.
var DefaultSensitiveFields = []string{"customer_name", "card_number"}

// Redactor strips PII from extracted rows and narrows them to CleanedRows.
type Redactor struct {
	fields   []string
	required []string
	logger   utils.Diagnostics
}

// NewRedactor creates a Redactor. An empty sensitive list falls back to
// DefaultSensitiveFields.
func NewRedactor(sensitive, required []string, logger utils.Diagnostics) *Redactor {
	if len(sensitive) == 0 {
		sensitive = DefaultSensitiveFields
	}
	return &Redactor{fields: sensitive, required: required, logger: logger}
}

// Redact returns a copy of rows with every sensitive field cleared. rows is
// not modified. Unknown field names are ignored.
func (r *Redactor) Redact(rows []models.ExtractedRow) []models.ExtractedRow {
	r.logger.Info("[redactor] Removing sensitive fields: %v", r.fields)

	out := make([]models.ExtractedRow, len(rows))
	copy(out, rows)

	for i := range out {
		for _, name := range r.fields {
			if f := extractedField(&out[i], name); f != nil {
				*f = ""
			}
		}
	}

	r.logger.Info("[redactor] Removed sensitive fields from %d records", len(rows))
	return out
}

// FilterRequired drops rows with an empty required field and returns the
// survivors without their PII columns.
func (r *Redactor) FilterRequired(rows []models.ExtractedRow) []models.CleanedRow {
	result := make([]models.CleanedRow, 0, len(rows))
	for i := range rows {
		if missing := r.missingField(&rows[i]); missing != "" {
			r.logger.Warn("[redactor] Skipping record %d due to missing field %q", i+1, missing)
			continue
		}
		row := rows[i]
		result = append(result, models.CleanedRow{
			Product:     row.Product,
			Qty:         row.Qty,
			Price:       row.Price,
			Branch:      row.Branch,
			PaymentType: row.PaymentType,
			DateTime:    row.DateTime,
		})
	}

	r.logger.Info("[redactor] %d records remain after filtering for required fields", len(result))
	return result
}

func (r *Redactor) missingField(row *models.ExtractedRow) string {
	for _, name := range r.required {
		f := extractedField(row, name)
		if f == nil || strings.TrimSpace(*f) == "" {
			return name
		}
	}
	return ""
}

// extractedField resolves a field by name. Both snake_case and header style
// ("Customer Name") are accepted.
func extractedField(row *models.ExtractedRow, name string) *string {
	switch fieldKey(name) {
	case "customer_name":
		return &row.CustomerName
	case "product":
		return &row.Product
	case "qty":
		return &row.Qty
	case "price":
		return &row.Price
	case "branch":
		return &row.Branch
	case "payment_type":
		return &row.PaymentType
	case "card_number":
		return &row.CardNumber
	case "date_time":
		return &row.DateTime
	}
	return nil
}

var fieldKeyReplacer = strings.NewReplacer(" ", "_", "/", "_", "-", "_")

func fieldKey(name string) string {
	return fieldKeyReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

package services

import (
	"strconv"
	"strings"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// Deduplicator removes rows that are exact duplicates of an earlier row.
type Deduplicator struct {
	logger utils.Diagnostics
}

func NewDeduplicator(logger utils.Diagnostics) *Deduplicator {
	return &Deduplicator{logger: logger}
}

// Dedupe keeps the first occurrence of every distinct row, preserving order.
// Rows are compared on every field including their line items; kept rows are
// returned as-is.
func (d *Deduplicator) Dedupe(rows []models.ParsedRow) []models.ParsedRow {
	seen := make(map[string]struct{}, len(rows))
	unique := make([]models.ParsedRow, 0, len(rows))

	for _, r := range rows {
		key := rowKey(r)
		if _, dup := seen[key]; dup {
			d.logger.Debug("[dedup] Duplicate row skipped: %s @ %s", r.Product, r.DateTime)
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}

	d.logger.Info("[dedup] Duplicates removed. %d unique rows remaining (dropped %d)",
		len(unique), len(rows)-len(unique))
	return unique
}

// rowKey renders r into an unambiguous comparison key. Line items keep their
// order; prices compare by value so 2.5 and 2.50 are equal.
func rowKey(r models.ParsedRow) string {
	var b strings.Builder
	for _, v := range []string{r.Product, r.Qty, r.Price, r.Branch, r.PaymentType, r.DateTime} {
		b.WriteString(strconv.Quote(v))
		b.WriteByte('|')
	}
	if r.Products == nil {
		b.WriteString("-")
		return b.String()
	}
	b.WriteByte('[')
	for _, p := range r.Products {
		b.WriteByte('(')
		b.WriteString(strconv.Quote(p.Size))
		b.WriteByte(',')
		b.WriteString(strconv.Quote(p.ProductName))
		b.WriteByte(',')
		b.WriteString(strconv.Quote(p.Flavour))
		b.WriteByte(',')
		b.WriteString(p.Price.String())
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

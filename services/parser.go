package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"cafe-etl/models"
	"cafe-etl/utils"
)

// entrySeparator splits one line item into name, optional flavour and price.
const entrySeparator = " - "

// ProductParser extracts line items from free-text product cells such as
// "Regular Flavoured iced latte - Hazelnut - 2.75, Large Latte - 2.45".
type ProductParser struct {
	sizes  map[string]struct{}
	logger utils.Diagnostics
}

// NewProductParser creates a parser recognising the given size vocabulary.
// sizes must already be lower-cased.
func NewProductParser(sizes map[string]struct{}, logger utils.Diagnostics) *ProductParser {
	return &ProductParser{sizes: sizes, logger: logger}
}

// ParseAll parses every row in order.
func (p *ProductParser) ParseAll(rows []models.CleanedRow) []models.ParsedRow {
	out := make([]models.ParsedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, p.Parse(r))
	}
	if len(out) > 0 {
		p.logger.Debug("[parser] First parsed record: %+v", out[0])
	}
	p.logger.Info("[parser] Product field parsing complete for %d records", len(out))
	return out
}

// Parse splits the product text of row into line items. When at least one
// item parses, the row price becomes the two-decimal sum of the item prices;
// otherwise the row is returned with its original price and no items.
func (p *ProductParser) Parse(row models.CleanedRow) models.ParsedRow {
	parsed := models.ParsedRow{CleanedRow: row}

	text := strings.TrimSpace(row.Product)
	if text == "" {
		return parsed
	}

	entries := []string{text}
	if strings.Contains(text, ",") {
		entries = strings.Split(text, ",")
	}

	var items []models.ParsedProduct
	total := decimal.Zero
	for _, entry := range entries {
		item, ok := p.parseEntry(strings.TrimSpace(entry))
		if !ok {
			continue
		}
		items = append(items, item)
		total = total.Add(item.Price)
	}

	if len(items) > 0 {
		parsed.Products = items
		parsed.Price = total.StringFixed(2)
	}
	return parsed
}

func (p *ProductParser) parseEntry(entry string) (models.ParsedProduct, bool) {
	parts := strings.SplitN(entry, entrySeparator, 3)

	var item models.ParsedProduct
	switch {
	case len(parts) == 2:
		item.ProductName = StandardiseProductName(parts[0])

	case len(parts) >= 3:
		tokens := strings.Fields(parts[0])
		if len(tokens) > 0 && p.isSize(tokens[0]) {
			item.Size = strings.ToLower(tokens[0])
			item.ProductName = StandardiseProductName(strings.Join(tokens[1:], " "))
		} else {
			item.ProductName = StandardiseProductName(parts[0])
		}
		if len(parts) == 3 {
			item.Flavour = strings.TrimSpace(parts[1])
		} else {
			item.Flavour = strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " "))
		}

	default:
		p.logger.Warn("[parser] Skipping product entry %q due to unexpected format", entry)
		return models.ParsedProduct{}, false
	}

	last := parts[len(parts)-1]
	price, err := parsePrice(last)
	if err != nil {
		p.logger.Warn("[parser] Invalid price %q in entry %q", last, entry)
		return models.ParsedProduct{}, false
	}
	item.Price = price
	return item, true
}

func (p *ProductParser) isSize(token string) bool {
	_, ok := p.sizes[strings.ToLower(token)]
	return ok
}

// StandardiseProductName lower-cases and trims a product name.
func StandardiseProductName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"cafe-etl/config"
	"cafe-etl/models"
	"cafe-etl/source"
	"cafe-etl/utils"
)

// rawColumns is the fixed column count of a POS export.
const rawColumns = 7

const paymentCash = "CASH"

// Loader turns delimited POS exports into ExtractedRows.
type Loader struct {
	cfg    config.TransformConfig
	logger utils.Diagnostics
}

// NewLoader creates a Loader for the given transform settings.
func NewLoader(cfg config.TransformConfig, logger utils.Diagnostics) *Loader {
	return &Loader{cfg: cfg, logger: logger}
}

// LoadURI opens uri through opener and extracts its rows. ok is false when the
// source does not exist, which callers treat as "nothing to do" rather than
// a failure.
func (l *Loader) LoadURI(ctx context.Context, opener source.Opener, uri string) (rows []models.ExtractedRow, ok bool, err error) {
	rc, found, err := opener.Open(ctx, uri)
	if err != nil {
		return nil, false, fmt.Errorf("loader: open %q: %w", uri, err)
	}
	if !found {
		l.logger.Error("[loader] File not found: %s", uri)
		return nil, false, nil
	}
	defer rc.Close()

	l.logger.Info("[loader] Extracting data from %s...", uri)
	rows, err = l.Load(rc)
	if err != nil {
		return nil, true, fmt.Errorf("loader: %s: %w", uri, err)
	}
	return rows, true, nil
}

// Load reads every row from r, drops rows that fail validation, and returns
// the rest in file order. The returned slice is never nil.
func (l *Loader) Load(r io.Reader) ([]models.ExtractedRow, error) {
	raw, err := l.readRaw(r)
	if err != nil {
		return nil, err
	}

	result := make([]models.ExtractedRow, 0, len(raw))
	for i, rr := range raw {
		row, reason := l.mapRow(rr)
		if reason != "" {
			l.logger.Warn("[loader] Row %d skipped: %s", i+1, reason)
			continue
		}
		result = append(result, row)
	}

	l.logger.Info("[loader] Extracted %d → %d rows (dropped %d)",
		len(raw), len(result), len(raw)-len(result))
	if len(result) > 0 {
		l.logger.Debug("[loader] Sample extracted row: %+v", result[0])
	}
	return result, nil
}

func (l *Loader) readRaw(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var rows []models.RawRow
	line := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && l.cfg.HeaderMayBePresent && l.isHeader(rec) {
			l.logger.Info("[loader] Detected header row in file; skipping it.")
			continue
		}
		if len(rec) < rawColumns {
			l.logger.Warn("[loader] Line %d skipped due to insufficient fields: got %d, expected %d",
				line, len(rec), rawColumns)
			continue
		}

		rows = append(rows, models.RawRow{
			DateTime:     strings.TrimSpace(rec[0]),
			Branch:       strings.TrimSpace(rec[1]),
			CustomerName: strings.TrimSpace(rec[2]),
			Product:      strings.TrimSpace(rec[3]),
			Price:        strings.TrimSpace(rec[4]),
			PaymentType:  strings.TrimSpace(rec[5]),
			CardNumber:   strings.TrimSpace(rec[6]),
		})
	}
	return rows, nil
}

// isHeader compares the first record against the configured header names as
// a set. Order is ignored, so a data row made of the literal header strings is
// also treated as a header.
func (l *Loader) isHeader(rec []string) bool {
	want := make(map[string]struct{}, len(l.cfg.DefaultHeaders))
	for _, h := range l.cfg.DefaultHeaders {
		want[normaliseHeader(h)] = struct{}{}
	}
	got := make(map[string]struct{}, len(rec))
	for _, v := range rec {
		got[normaliseHeader(v)] = struct{}{}
	}
	if len(want) == 0 || len(got) != len(want) {
		return false
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			return false
		}
	}
	return true
}

// mapRow validates rr and renames its fields. A non-empty reason means the
// row must be dropped.
func (l *Loader) mapRow(rr models.RawRow) (models.ExtractedRow, string) {
	required := []struct {
		name  string
		value string
	}{
		{"date_time", rr.DateTime},
		{"branch", rr.Branch},
		{"customer_name", rr.CustomerName},
		{"product", rr.Product},
		{"price", rr.Price},
		{"payment_type", rr.PaymentType},
	}
	for _, f := range required {
		if f.value == "" {
			return models.ExtractedRow{}, fmt.Sprintf("missing required field %q", f.name)
		}
	}

	cash := strings.EqualFold(rr.PaymentType, paymentCash)
	if !cash && rr.CardNumber == "" {
		return models.ExtractedRow{}, fmt.Sprintf("missing card number for %s payment", rr.PaymentType)
	}

	price, err := NormalisePrice(rr.Price)
	if err != nil {
		return models.ExtractedRow{}, fmt.Sprintf("invalid price %q", rr.Price)
	}

	card := rr.CardNumber
	if cash {
		card = ""
	}

	return models.ExtractedRow{
		CustomerName: rr.CustomerName,
		Product:      rr.Product,
		Qty:          l.cfg.DefaultQty,
		Price:        price,
		Branch:       rr.Branch,
		PaymentType:  rr.PaymentType,
		CardNumber:   card,
		DateTime:     rr.DateTime,
	}, ""
}

// NormalisePrice parses s as a number and renders it with two fraction digits.
func NormalisePrice(s string) (string, error) {
	d, err := parsePrice(s)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

func normaliseHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package storage

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"cafe-etl/models"
)

// NamedWriter pairs a sink with the name used in logs and errors.
type NamedWriter struct {
	Name   string
	Writer BundleWriter
}

// MultiWriter fans a bundle out to several sinks. Every sink is attempted;
// failures are combined.
type MultiWriter struct {
	writers []NamedWriter
}

func NewMultiWriter(writers ...NamedWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Len returns the number of configured sinks.
func (m *MultiWriter) Len() int { return len(m.writers) }

func (m *MultiWriter) Write(ctx context.Context, b *models.Bundle) error {
	var errs error
	for _, w := range m.writers {
		if err := w.Writer.Write(ctx, b); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", w.Name, err))
		}
	}
	return errs
}

// CountRows returns the counts of every sink that can report them, keyed by
// sink name.
func (m *MultiWriter) CountRows(ctx context.Context) (map[string]map[string]int64, error) {
	out := make(map[string]map[string]int64)
	var errs error
	for _, w := range m.writers {
		rc, ok := w.Writer.(RowCounter)
		if !ok {
			continue
		}
		counts, err := rc.CountRows(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", w.Name, err))
			continue
		}
		out[w.Name] = counts
	}
	return out, errs
}

func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: close: %w", w.Name, err))
		}
	}
	return multierr.Combine(errs...)
}

package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-etl/metrics"
	"cafe-etl/models"
	"cafe-etl/utils"
)

type memOpener map[string]string

func (m memOpener) Open(_ context.Context, uri string) (io.ReadCloser, bool, error) {
	data, ok := m[uri]
	if !ok {
		return nil, false, nil
	}
	return io.NopCloser(strings.NewReader(data)), true, nil
}

type recordingWriter struct {
	bundles []*models.Bundle
	err     error
}

func (w *recordingWriter) Write(_ context.Context, b *models.Bundle) error {
	if w.err != nil {
		return w.err
	}
	w.bundles = append(w.bundles, b)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestRunner(opener memOpener, w *recordingWriter, dryRun bool) *Runner {
	return NewRunner(RunnerOptions{
		Transform: testTransformConfig(),
		Opener:    opener,
		Writer:    w,
		DryRun:    dryRun,
		Metrics:   metrics.NewBatchMetrics(),
		NewID:     sequentialIDs(),
		Logger:    utils.NewNopLogger(),
	})
}

const leedsExport = "25/08/2021 09:00,Leeds,Ann Lee,Large Latte - Hazelnut - 2.45,2.45,CASH,\n"

func TestRunLoadsEveryInput(t *testing.T) {
	opener := memOpener{"a.csv": sampleExport, "b.csv": leedsExport}
	w := &recordingWriter{}

	loaded, err := newTestRunner(opener, w, false).Run(context.Background(), []string{"a.csv", "missing.csv", "b.csv"})
	require.NoError(t, err)
	assert.True(t, loaded)

	require.Len(t, w.bundles, 1)
	b := w.bundles[0]
	assert.Len(t, b.FinalTransactions, 3)
	assert.Len(t, b.BranchData.BranchesTable, 2)
}

func TestRunNothingExtracted(t *testing.T) {
	w := &recordingWriter{}
	r := newTestRunner(memOpener{"empty.csv": ""}, w, false)

	loaded, err := r.Run(context.Background(), []string{"empty.csv", "missing.csv"})
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Empty(t, w.bundles)
}

func TestRunNothingTransformed(t *testing.T) {
	cfg := testTransformConfig()
	cfg.RequiredFields = []string{"customer_name"}
	w := &recordingWriter{}

	r := NewRunner(RunnerOptions{
		Transform: cfg,
		Opener:    memOpener{"a.csv": leedsExport},
		Writer:    w,
		Logger:    utils.NewNopLogger(),
	})

	loaded, err := r.Run(context.Background(), []string{"a.csv"})
	require.NoError(t, err)
	assert.False(t, loaded, "customer_name is redacted so no row can satisfy the filter")
	assert.Empty(t, w.bundles)
}

func TestRunDryRunSkipsLoad(t *testing.T) {
	w := &recordingWriter{}
	r := newTestRunner(memOpener{"b.csv": leedsExport}, w, true)

	loaded, err := r.Run(context.Background(), []string{"b.csv"})
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Empty(t, w.bundles)
}

func TestRunSinkErrorIsWrapped(t *testing.T) {
	sinkErr := errors.New("disk full")
	w := &recordingWriter{err: sinkErr}

	loaded, err := newTestRunner(memOpener{"b.csv": leedsExport}, w, false).Run(context.Background(), []string{"b.csv"})
	require.Error(t, err)
	assert.False(t, loaded)
	assert.ErrorIs(t, err, sinkErr)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &recordingWriter{}

	loaded, err := newTestRunner(memOpener{"b.csv": leedsExport}, w, false).Run(ctx, []string{"b.csv"})
	require.Error(t, err)
	assert.False(t, loaded)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.bundles)
}

func TestRunRecordsMetrics(t *testing.T) {
	m := metrics.NewBatchMetrics()
	r := NewRunner(RunnerOptions{
		Transform: testTransformConfig(),
		Opener:    memOpener{"a.csv": sampleExport},
		Writer:    &recordingWriter{},
		Metrics:   m,
		Logger:    utils.NewNopLogger(),
	})

	_, err := r.Run(context.Background(), []string{"a.csv"})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(m.Gatherer(), "cafe_etl_rows_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n, "extracted, transformed, dropped and loaded series")
}

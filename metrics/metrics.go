package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetrics records per-run figures of the ETL pipeline. A batch job has
// no scrape endpoint, so the registry is written to a node-exporter textfile
// at the end of a run.
type BatchMetrics struct {
	registry *prometheus.Registry

	rows      *prometheus.CounterVec
	entities  *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	lastRun   prometheus.Gauge
	runResult *prometheus.CounterVec
}

// NewBatchMetrics registers the pipeline metrics on a fresh registry.
func NewBatchMetrics() *BatchMetrics {
	reg := prometheus.NewRegistry()

	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_etl_rows_total",
		Help: "Rows seen by each pipeline stage.",
	}, []string{"stage"})
	entities := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cafe_etl_entities",
		Help: "Entities produced by the last run, per table.",
	}, []string{"table"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cafe_etl_stage_duration_seconds",
		Help:    "Duration of each top-level stage in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cafe_etl_last_run_timestamp_seconds",
		Help: "Unix time of the last finished run.",
	})
	runResult := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_etl_runs_total",
		Help: "Finished runs by result.",
	}, []string{"result"})

	reg.MustRegister(rows, entities, duration, lastRun, runResult)
	return &BatchMetrics{
		registry:  reg,
		rows:      rows,
		entities:  entities,
		duration:  duration,
		lastRun:   lastRun,
		runResult: runResult,
	}
}

// AddRows adds n to the row counter of stage.
func (m *BatchMetrics) AddRows(stage string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(stage)).Add(float64(n))
}

// SetEntities records the size of a produced table.
func (m *BatchMetrics) SetEntities(table string, n int) {
	if m == nil {
		return
	}
	m.entities.WithLabelValues(normalizeLabel(table)).Set(float64(n))
}

// ObserveStage records how long stage took.
func (m *BatchMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stage)).Observe(d.Seconds())
}

// Finish marks the run as done with the given result ("loaded", "empty",
// "failed" ...).
func (m *BatchMetrics) Finish(result string, at time.Time) {
	if m == nil {
		return
	}
	m.runResult.WithLabelValues(normalizeLabel(result)).Inc()
	m.lastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (m *BatchMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format to path.
func (m *BatchMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

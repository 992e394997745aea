// Package metrics provides Prometheus collectors for formatbench runs.
//
// # Overview
//
// The package exposes pre-registered collectors for the ingest and encode
// path plus the benchmark driver:
//   - rows and chunks ingested per table
//   - encode latency and bytes written per output format
//   - table failures per stage
//   - load latency per table and format
//
// # Basic Usage
//
//	timer := metrics.NewTimer()
//	err := writer.Write(rec)
//	metrics.EncodeLatency.WithLabelValues("parquet").Observe(timer.Stop().Seconds())
//
//	tracker := metrics.NewThroughputTracker("lineitem")
//	tracker.Increment(int64(chunk.NumRows()))
//	rowsPerSec := tracker.GetAndReset()
//
// Collectors register with the default Prometheus registry on package
// initialization; cmd/formatbench serves them when --metrics-addr is set.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsIngested counts source rows converted into chunks.
	// Labels: table
	RowsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formatbench_rows_ingested_total",
			Help: "Total number of source rows ingested",
		},
		[]string{"table"},
	)

	// ChunksFlushed counts record batches handed to the encoder.
	// Labels: table
	ChunksFlushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formatbench_chunks_flushed_total",
			Help: "Total number of chunks flushed to the encoder",
		},
		[]string{"table"},
	)

	// EncodeLatency tracks how long one chunk takes to encode into one format.
	// Labels: format
	EncodeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "formatbench_encode_latency_seconds",
			Help: "Per-chunk encode latency in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005,
				0.01, // 10ms
				0.05,
				0.1, // 100ms
				0.5,
				1, // 1s
				5,
			},
		},
		[]string{"format"},
	)

	// BytesWritten counts encoded bytes per output format.
	// Labels: format
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formatbench_bytes_written_total",
			Help: "Total bytes written per output format",
		},
		[]string{"format"},
	)

	// TableFailures counts tables whose processing failed.
	// Labels: table, stage (ingest/convert/encode/load)
	TableFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formatbench_table_failures_total",
			Help: "Total number of failed tables",
		},
		[]string{"table", "stage"},
	)

	// LoadLatency tracks benchmark load trials.
	// Labels: table, format
	LoadLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "formatbench_load_latency_seconds",
			Help:    "Table store load latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"table", "format"},
	)

	// Throughput tracks rows per second for the table being ingested.
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "formatbench_throughput_rows_per_second",
			Help: "Current ingest throughput in rows per second",
		},
		[]string{"table"},
	)

	// TablesInFlight tracks tables currently being converted.
	TablesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "formatbench_tables_in_flight",
			Help: "Number of tables currently being converted",
		},
	)
)

// Timer measures an operation duration from its creation.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rows per second for one table over time windows.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Rows since last reset
	lastReset time.Time // Time of last reset
	table     string
}

// NewThroughputTracker creates a new throughput tracker for a table.
func NewThroughputTracker(table string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		table:     table,
	}
}

// Increment adds n to the row count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (rows/second), updates the
// Prometheus gauge, resets the counter and returns the throughput.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.table).Set(throughput)

	return throughput
}

// Package pipeline converts every table of a catalog, one table per
// worker, and reports per-table outcomes.
//
// Tables are independent: each gets its own source reader, accumulators
// and sink set, so a failed table never affects the others. With one
// worker tables run sequentially in catalog order; with more they run
// concurrently on an errgroup limited to Workers goroutines.
package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/formatbench/internal/ingest"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/metrics"
	"github.com/ajitpratap0/formatbench/pkg/observability"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

// Config contains runner configuration
type Config struct {
	OutputDir string
	// Workers is the number of tables converted concurrently
	Workers int
	Ingest  ingest.Config
	Writer  *formats.WriterConfig
	// KeepFailedArtifacts leaves partial artifacts of failed tables on disk
	KeepFailedArtifacts bool
	// SampleInterval is the resident memory sampling period; 0 disables it
	SampleInterval time.Duration
	// OnProgress is called after every chunk. It may be called from
	// several goroutines at once.
	OnProgress func(table string, consumed, total int64)
	// OnTableDone is called once per table, serialized.
	OnTableDone func(TableOutcome)
}

// DefaultConfig returns a sequential configuration writing to dir
func DefaultConfig(dir string) *Config {
	return &Config{
		OutputDir:      dir,
		Workers:        1,
		Writer:         formats.DefaultWriterConfig(),
		SampleInterval: 100 * time.Millisecond,
	}
}

// Runner converts catalogs of tables
type Runner struct {
	config *Config
	logger *zap.Logger
	doneMu sync.Mutex
}

// NewRunner creates a runner. A nil config means DefaultConfig("out").
func NewRunner(config *Config, logger *zap.Logger) *Runner {
	if config == nil {
		config = DefaultConfig("out")
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: config, logger: logger}
}

// Run converts tables and returns the report. Table failures are recorded
// in the report, not returned; the error is non-nil only when the run
// could not start or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, tables []schema.TableSpec) (*Report, error) {
	start := time.Now()
	report := &Report{Outcomes: make([]TableOutcome, len(tables))}

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.Int("tables", len(tables)),
		attribute.Int("workers", r.config.Workers))
	defer span.End()

	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		err = errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("path", r.config.OutputDir)
		observability.EndWithError(span, err)
		return nil, err
	}

	sampler := startSampler(r.config.SampleInterval)

	r.logger.Info("starting conversion",
		zap.Int("tables", len(tables)),
		zap.Int("workers", r.config.Workers),
		zap.String("output_dir", r.config.OutputDir))

	var g errgroup.Group
	g.SetLimit(r.config.Workers)
	for i, table := range tables {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report.Outcomes[i] = r.runTable(ctx, table)
			return nil
		})
	}
	_ = g.Wait()

	report.PeakRSS = sampler.stop()
	report.Duration = time.Since(start)

	// Tables skipped after cancellation still get an outcome
	for i, table := range tables {
		if report.Outcomes[i].Table == "" {
			report.Outcomes[i] = TableOutcome{Table: table.Name, Error: "not started: run cancelled"}
		}
	}

	r.logger.Info("conversion finished",
		zap.Int("tables", len(tables)),
		zap.Int("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
		zap.Uint64("peak_rss_bytes", report.PeakRSS))

	if err := ctx.Err(); err != nil {
		observability.EndWithError(span, err)
		return report, errors.Wrap(err, errors.ErrorTypeInternal, "conversion cancelled")
	}
	observability.EndWithError(span, report.Err())
	return report, nil
}

func (r *Runner) runTable(ctx context.Context, table schema.TableSpec) TableOutcome {
	metrics.TablesInFlight.Inc()
	defer metrics.TablesInFlight.Dec()

	opts := ingest.TableOptions{
		OutputDir: r.config.OutputDir,
		Ingest:    r.config.Ingest,
		Writer:    r.config.Writer,
	}
	if r.config.OnProgress != nil {
		name := table.Name
		opts.OnProgress = func(consumed, total int64) {
			r.config.OnProgress(name, consumed, total)
		}
	}

	result, err := ingest.RunTable(ctx, table, opts)
	outcome := TableOutcome{Table: table.Name}
	if result != nil {
		outcome.Rows = result.Rows
		outcome.Chunks = result.Chunks
		outcome.Duration = result.Duration
		outcome.Artifacts = result.Artifacts
		outcome.Stats = result.Stats
	}

	if err != nil {
		outcome.Err = err
		outcome.Error = err.Error()
		metrics.TableFailures.WithLabelValues(table.Name, failureStage(err)).Inc()
		r.logger.Error("table failed", append(logger.ErrorFields(err), zap.String("table", table.Name))...)

		if !r.config.KeepFailedArtifacts {
			r.removeArtifacts(table.Name, outcome.Artifacts)
			outcome.Artifacts = nil
		}
	}

	if r.config.OnTableDone != nil {
		r.doneMu.Lock()
		r.config.OnTableDone(outcome)
		r.doneMu.Unlock()
	}
	return outcome
}

func (r *Runner) removeArtifacts(table string, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to remove partial artifact",
				zap.String("table", table),
				zap.String("path", p),
				zap.Error(err))
		}
	}
}

func failureStage(err error) string {
	switch {
	case errors.IsType(err, errors.ErrorTypeEncoding):
		return "encode"
	case errors.IsType(err, errors.ErrorTypeConversion):
		return "convert"
	default:
		return "ingest"
	}
}

package bench

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/metrics"
	"github.com/ajitpratap0/formatbench/pkg/observability"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

// Config configures a benchmark run
type Config struct {
	Trials    int
	OutputDir string
	// Formats are the benchmark columns, DefaultFormats when empty
	Formats []string
	// Writer locates compressed CSV artifacts; nil means uncompressed
	Writer *formats.WriterConfig
}

// Runner loads every artifact into a TableStore Trials times and records
// the mean load time
type Runner struct {
	store   TableStore
	config  Config
	logger  *zap.Logger
	results *Results
}

// NewRunner creates a benchmark runner
func NewRunner(store TableStore, config Config, logger *zap.Logger) *Runner {
	if len(config.Formats) == 0 {
		config.Formats = DefaultFormats
	}
	if config.Trials <= 0 {
		config.Trials = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:   store,
		config:  config,
		logger:  logger,
		results: NewResults(config.Formats),
	}
}

// Results returns the results collected so far
func (r *Runner) Results() *Results {
	return r.results
}

// Run benchmarks tables in order. Failed trials are recorded in the
// results; only cancellation returns an error.
func (r *Runner) Run(ctx context.Context, tables []schema.TableSpec) (*Results, error) {
	err := observability.Trace(ctx, "bench.run", func(ctx context.Context) error {
		for _, table := range tables {
			r.results.AddTable(table.Name)
			createSQL := table.CreateTableSQL()

			for _, format := range r.config.Formats {
				path := ArtifactPath(table, format, r.config.OutputDir, r.config.Writer)
				loadSQL, err := LoadSQL(table.Name, format, path)
				if err != nil {
					r.results.Fail(table.Name, format, err)
					continue
				}

				for trial := 0; trial < r.config.Trials; trial++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					elapsed, err := r.trial(ctx, table.Name, createSQL, loadSQL)
					if err != nil {
						r.logger.Error("load trial failed",
							append(logger.ErrorFields(err),
								zap.String("table", table.Name),
								zap.String("format", format),
								zap.Int("trial", trial))...)
						metrics.TableFailures.WithLabelValues(table.Name, "load").Inc()
						r.results.Fail(table.Name, format, err)
						continue
					}
					metrics.LoadLatency.WithLabelValues(table.Name, format).Observe(elapsed.Seconds())
					r.results.Record(table.Name, format, elapsed)
				}

				cell, _ := r.results.Get(table.Name, format)
				r.logger.Info("format benchmarked",
					zap.String("table", table.Name),
					zap.String("format", format),
					zap.Float64("mean_ms", cell.MeanMillis))
			}
		}
		return nil
	}, attribute.Int("tables", len(tables)), attribute.Int("trials", r.config.Trials))

	if err != nil {
		return r.results, errors.Wrap(err, errors.ErrorTypeInternal, "benchmark cancelled")
	}
	return r.results, nil
}

// trial recreates the table and times the load statement alone
func (r *Runner) trial(ctx context.Context, table, createSQL, loadSQL string) (time.Duration, error) {
	if err := r.store.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, err
	}
	if err := r.store.Exec(ctx, createSQL); err != nil {
		return 0, err
	}
	start := time.Now()
	if err := r.store.Exec(ctx, loadSQL); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

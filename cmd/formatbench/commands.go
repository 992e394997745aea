package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/internal/bench"
	"github.com/ajitpratap0/formatbench/internal/ingest"
	"github.com/ajitpratap0/formatbench/internal/pipeline"
	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/config"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

func (a *app) loadCatalog() ([]schema.TableSpec, error) {
	if err := a.cfg.RequireCatalog(); err != nil {
		return nil, err
	}
	tables, err := schema.LoadTables(a.cfg.Catalog, schema.LoadOptions{DataDir: a.cfg.DataDir})
	if err != nil {
		return nil, err
	}
	a.log.Info("catalog loaded",
		zap.String("catalog", a.cfg.Catalog),
		zap.Int("tables", len(tables)))
	return tables, nil
}

func (a *app) convertCommand() *cobra.Command {
	var showProgress, keepFailed bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert every catalog table into all output formats",
		Long: `Convert reads each table's pipe-delimited source and writes
<table>.parquet, <table>.arrow, <table>.arrows and <table>.csv into the
output directory. A table that fails leaves no artifacts behind unless
--keep-failed is given; the command exits non-zero if any table failed.

Example:
  formatbench convert --catalog tpch.toml --data-dir tpch_data --out out --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.loadCatalog()
			if err != nil {
				return err
			}

			pc := a.pipelineConfig()
			pc.KeepFailedArtifacts = keepFailed
			if showProgress {
				tracker := newProgressTracker(tables)
				defer tracker.finish()
				pc.OnProgress = tracker.update
			}

			runner := pipeline.NewRunner(pc, a.log)
			report, err := runner.Run(a.context(cmd.Context()), tables)
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report)
			a.log.Info("conversion completed",
				zap.Int64("rows", report.Rows()),
				zap.Duration("duration", report.Duration),
				zap.Float64("rows_per_second", float64(report.Rows())/report.Duration.Seconds()),
				zap.Uint64("peak_rss_bytes", report.PeakRSS))
			return report.Err()
		},
	}

	f := cmd.Flags()
	f.Int("workers", 1, "Number of tables converted concurrently")
	f.Int("chunk-rows", columnar.MaxChunkRows, "Rows per chunk, at most 122880")
	f.String("parquet-compression", "snappy", "Parquet codec (snappy, zstd, gzip, lz4, none)")
	f.String("ipc-compression", "none", "Arrow IPC codec (none, zstd, lz4)")
	f.String("csv-compression", "none", "CSV compression (none, gzip, zstd, lz4)")
	f.BoolVar(&showProgress, "progress", false, "Show a progress bar over source bytes")
	f.BoolVar(&keepFailed, "keep-failed", false, "Keep partial artifacts of failed tables")

	_ = a.v.BindPFlag("ingest.workers", f.Lookup("workers"))
	_ = a.v.BindPFlag("ingest.chunk_rows", f.Lookup("chunk-rows"))
	_ = a.v.BindPFlag("encoding.parquet_compression", f.Lookup("parquet-compression"))
	_ = a.v.BindPFlag("encoding.ipc_compression", f.Lookup("ipc-compression"))
	_ = a.v.BindPFlag("encoding.csv_compression", f.Lookup("csv-compression"))
	return cmd
}

func (a *app) pipelineConfig() *pipeline.Config {
	pc := pipeline.DefaultConfig(a.cfg.OutputDir)
	pc.Workers = a.cfg.Ingest.Workers
	pc.Ingest = ingest.Config{ChunkRows: a.cfg.Ingest.ChunkRows}
	pc.Writer = a.cfg.WriterConfig()
	return pc
}

func printReport(w io.Writer, report *pipeline.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS\tCHUNKS\tDURATION\tSTATUS")
	for _, o := range report.Outcomes {
		status := "ok"
		if !o.OK() {
			status = o.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", o.Table, o.Rows, o.Chunks, o.Duration.Round(1e6), status)
	}
	_ = tw.Flush()
}

// progressTracker folds per-table byte progress from concurrent workers
// into one bar over the total source size
type progressTracker struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	seen map[string]int64
}

func newProgressTracker(tables []schema.TableSpec) *progressTracker {
	var total int64
	for _, t := range tables {
		if info, err := os.Stat(t.SourcePath); err == nil {
			total += info.Size()
		}
	}
	return &progressTracker{
		bar:  progressbar.DefaultBytes(total, "converting"),
		seen: make(map[string]int64),
	}
}

func (p *progressTracker) update(table string, consumed, _ int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delta := consumed - p.seen[table]
	if delta <= 0 {
		return
	}
	p.seen[table] = consumed
	_ = p.bar.Add64(delta)
}

func (p *progressTracker) finish() {
	_ = p.bar.Finish()
}

func (a *app) benchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure table store load time for every artifact format",
		Long: `Bench loads every converted artifact, plus the raw source, into an
embedded DuckDB database and records the mean load time in milliseconds
per table and format. Failed loads are reported as -1.

Example:
  formatbench bench --catalog tpch.toml --out out --trials 5 --results results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.loadCatalog()
			if err != nil {
				return err
			}
			ctx := a.context(cmd.Context())

			store, err := bench.OpenDuckDB(ctx, a.cfg.Bench.DSN, a.cfg.Bench.Extensions, a.log)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := bench.NewRunner(store, bench.Config{
				Trials:    a.cfg.Bench.Trials,
				OutputDir: a.cfg.OutputDir,
				Formats:   a.cfg.Bench.Formats,
				Writer:    a.cfg.WriterConfig(),
			}, a.log)
			results, err := runner.Run(ctx, tables)
			if err != nil {
				return err
			}

			if err := writeResults(cmd.OutOrStdout(), a.cfg.Bench.Results, results.WriteCSV); err != nil {
				return err
			}
			if a.cfg.Bench.ResultsJSON != "" {
				if err := writeResults(cmd.OutOrStdout(), a.cfg.Bench.ResultsJSON, results.WriteJSON); err != nil {
					return err
				}
			}
			a.log.Info("benchmark results written", zap.String("results", a.cfg.Bench.Results))
			return nil
		},
	}

	f := cmd.Flags()
	f.Int("trials", 5, "Load trials per table and format")
	f.String("results", "results.csv", "Results CSV path, - for stdout")
	f.String("results-json", "", "Optional results JSON path, - for stdout")
	f.String("dsn", "", "DuckDB database path; empty for in-memory")
	_ = a.v.BindPFlag("bench.trials", f.Lookup("trials"))
	_ = a.v.BindPFlag("bench.results", f.Lookup("results"))
	_ = a.v.BindPFlag("bench.results_json", f.Lookup("results-json"))
	_ = a.v.BindPFlag("bench.dsn", f.Lookup("dsn"))
	return cmd
}

func writeResults(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create results file").
			WithDetail("path", path)
	}
	if err := write(file); err != nil {
		file.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write results").
			WithDetail("path", path)
	}
	return file.Close()
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Read every artifact back and compare row counts across formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.loadCatalog()
			if err != nil {
				return err
			}
			return verifyTables(cmd.OutOrStdout(), a.cfg, tables, a.log)
		},
	}
}

// verifyTables prints per-format row counts and fails when an artifact
// cannot be read or the counts of a table disagree.
func verifyTables(w io.Writer, cfg *config.RunConfig, tables []schema.TableSpec, log *zap.Logger) error {
	writer := cfg.WriterConfig()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "TABLE"
	for _, f := range formats.All() {
		header += "\t" + string(f)
	}
	fmt.Fprintln(tw, header+"\tSTATUS")

	var failed []string
	for _, table := range tables {
		line := table.Name
		status := "ok"
		var counts []int64
		for _, f := range formats.All() {
			path := table.OutputPath(cfg.OutputDir, writer.ArtifactExtension(f))
			summary, err := formats.ReadBack(f, path, &formats.ReaderConfig{
				Schema:         table.ArrowSchema(),
				CSVCompression: writer.CSVCompression,
			})
			if err != nil {
				log.Error("artifact unreadable", append(logger.ErrorFields(err),
					zap.String("table", table.Name), zap.String("format", string(f)))...)
				line += "\t-"
				status = "unreadable " + string(f)
				continue
			}
			line += fmt.Sprintf("\t%d", summary.Rows)
			counts = append(counts, summary.Rows)
		}
		for _, n := range counts {
			if n != counts[0] && status == "ok" {
				status = "row counts differ"
			}
		}
		if status != "ok" {
			failed = append(failed, table.Name)
		}
		fmt.Fprintln(tw, line+"\t"+status)
	}
	fmt.Fprintln(tw)
	for _, f := range formats.All() {
		info := formats.GetFormatInfo(f)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f, info.Name, writer.ArtifactExtension(f))
	}
	_ = tw.Flush()

	if len(failed) > 0 {
		return errors.New(errors.ErrorTypeInternal, fmt.Sprintf("%d tables failed verification", len(failed))).
			WithDetail("tables", failed)
	}
	return nil
}

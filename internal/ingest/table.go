package ingest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/observability"
	"github.com/ajitpratap0/formatbench/pkg/schema"
	"github.com/ajitpratap0/formatbench/pkg/tbl"
)

// TableOptions configures RunTable
type TableOptions struct {
	OutputDir string
	Ingest    Config
	Writer    *formats.WriterConfig
	// OnProgress, when set, is called after every chunk with the bytes of
	// the source consumed so far and its total size.
	OnProgress func(consumed, total int64)
}

// TableResult describes one converted table
type TableResult struct {
	Table     string                              `json:"table"`
	Rows      int64                               `json:"rows"`
	Chunks    int                                 `json:"chunks"`
	Duration  time.Duration                       `json:"duration"`
	Artifacts []string                            `json:"artifacts"`
	Stats     map[formats.Format]formats.SinkStats `json:"stats,omitempty"`
}

// RunTable converts one table from its source file into all output
// formats. On failure the sinks are closed and the artifact paths are
// still reported in the result so the caller can remove them.
func RunTable(ctx context.Context, table schema.TableSpec, opts TableOptions) (*TableResult, error) {
	start := time.Now()
	result := &TableResult{Table: table.Name}

	ctx = logger.ContextWithTable(ctx, table.Name)
	log := logger.WithContext(ctx)

	err := observability.Trace(ctx, "ingest.table", func(ctx context.Context) error {
		reader, err := tbl.Open(table.SourcePath, len(table.Columns))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeSource, "open source").
				WithDetail("table", table.Name)
		}
		defer reader.Close()

		sinks, err := formats.OpenSinkSet(table, opts.OutputDir, opts.Writer)
		if err != nil {
			return err
		}
		result.Artifacts = sinks.Paths()

		handler := ChunkHandler(sinks)
		if opts.OnProgress != nil {
			handler = ChunkHandlerFunc(func(chunk *columnar.Chunk) error {
				if err := sinks.WriteChunk(chunk); err != nil {
					return err
				}
				opts.OnProgress(reader.Progress())
				return nil
			})
		}

		in, err := New(table, handler, opts.Ingest, log)
		if err != nil {
			sinks.Abort()
			return err
		}

		if err := in.Run(ctx, reader.Rows()); err != nil {
			sinks.Abort()
			result.Rows, result.Chunks = in.Rows(), in.Chunks()
			return err
		}
		result.Rows, result.Chunks = in.Rows(), in.Chunks()

		if err := sinks.Close(); err != nil {
			return err
		}
		result.Stats = sinks.Stats()
		return nil
	}, attribute.String("table", table.Name), attribute.String("source", table.SourcePath))

	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	log.Info("table converted",
		zap.Int64("rows", result.Rows),
		zap.Int("chunks", result.Chunks),
		zap.Duration("duration", result.Duration))
	return result, nil
}

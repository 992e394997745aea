// Package ingest turns the rows of one source table into chunks and hands
// them to an encoder.
//
// The Ingestor is a small state machine:
//
//	Idle -> Reading -> (Flushing -> Reading)* -> Done
//
// It holds one accumulator per column. Every row is appended field by field
// in declared column order; when ChunkRows rows have accumulated the
// accumulators are finished into a Chunk, the chunk is handed to the
// ChunkHandler and fresh accumulators are built. At the end of the source a
// final partial chunk is flushed only if rows are pending. Any row error
// fails the whole table and moves the machine to Failed.
package ingest

import (
	"context"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/metrics"
	"github.com/ajitpratap0/formatbench/pkg/schema"
	"github.com/ajitpratap0/formatbench/pkg/tbl"
)

// State of an Ingestor
type State int

const (
	Idle State = iota
	Reading
	Flushing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Reading:
		return "reading"
	case Flushing:
		return "flushing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChunkHandler consumes flushed chunks. It must not retain the chunk after
// returning; the ingestor releases it immediately afterwards.
type ChunkHandler interface {
	WriteChunk(chunk *columnar.Chunk) error
}

// ChunkHandlerFunc adapts a function to ChunkHandler
type ChunkHandlerFunc func(chunk *columnar.Chunk) error

// WriteChunk calls f(chunk)
func (f ChunkHandlerFunc) WriteChunk(chunk *columnar.Chunk) error {
	return f(chunk)
}

// Config tunes an Ingestor
type Config struct {
	// ChunkRows is the flush threshold; 0 means columnar.MaxChunkRows
	ChunkRows int
	Allocator memory.Allocator
}

// Ingestor converts the rows of one table into chunks. It is owned by a
// single goroutine.
type Ingestor struct {
	table     schema.TableSpec
	schema    *arrow.Schema
	handler   ChunkHandler
	mem       memory.Allocator
	chunkRows int
	logger    *zap.Logger

	state   State
	accs    []*columnar.Accumulator
	pending int
	rows    int64
	chunks  int
	tracker *metrics.ThroughputTracker
}

// New returns an Ingestor in the Idle state for table.
func New(table schema.TableSpec, handler ChunkHandler, config Config, logger *zap.Logger) (*Ingestor, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	chunkRows := config.ChunkRows
	if chunkRows <= 0 {
		chunkRows = columnar.MaxChunkRows
	}
	if chunkRows > columnar.MaxChunkRows {
		return nil, errors.Newf(errors.ErrorTypeConfig, "", "chunk rows %d exceeds %d", chunkRows, columnar.MaxChunkRows)
	}
	mem := config.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	in := &Ingestor{
		table:     table,
		schema:    table.ArrowSchema(),
		handler:   handler,
		mem:       mem,
		chunkRows: chunkRows,
		logger:    logger,
		state:     Idle,
		tracker:   metrics.NewThroughputTracker(table.Name),
	}
	in.resetAccumulators()
	return in, nil
}

// State returns the current state
func (in *Ingestor) State() State { return in.state }

// Rows returns the number of rows appended so far
func (in *Ingestor) Rows() int64 { return in.rows }

// Chunks returns the number of chunks handed to the handler
func (in *Ingestor) Chunks() int { return in.chunks }

// Run consumes rows until the sequence ends or an error occurs. It can be
// called once; the ingestor ends in Done or Failed. ctx is checked between
// chunks.
func (in *Ingestor) Run(ctx context.Context, rows iter.Seq2[tbl.RawRow, error]) error {
	if in.state != Idle {
		return errors.Newf(errors.ErrorTypeInternal, "", "ingestor for %s already ran (%s)", in.table.Name, in.state)
	}
	in.state = Reading
	defer in.releaseAccumulators()

	span := trace.SpanFromContext(ctx)

	for row, err := range rows {
		if err != nil {
			return in.fail(errors.Wrap(err, errors.ErrorTypeSource, "read "+in.table.Name))
		}
		if err := in.appendRow(row); err != nil {
			return in.fail(err)
		}
		if in.pending == in.chunkRows {
			if err := ctx.Err(); err != nil {
				return in.fail(errors.Wrap(err, errors.ErrorTypeInternal, "ingestion cancelled"))
			}
			if err := in.flush(span); err != nil {
				return in.fail(err)
			}
		}
	}

	if in.pending > 0 {
		if err := in.flush(span); err != nil {
			return in.fail(err)
		}
	}
	in.tracker.GetAndReset()
	in.state = Done
	in.logger.Debug("ingestion done", zap.Int64("rows", in.rows), zap.Int("chunks", in.chunks))
	return nil
}

func (in *Ingestor) appendRow(row tbl.RawRow) error {
	if len(row) != len(in.accs) {
		return errors.Newf(errors.ErrorTypeSource, errors.CodeFieldCountMismatch,
			"expected %d fields, got %d", len(in.accs), len(row)).
			WithDetail("expected", len(in.accs)).
			WithDetail("actual", len(row))
	}
	// A failing column leaves earlier columns one slot ahead; the run fails,
	// so the misaligned accumulators are discarded.
	for i, text := range row {
		if err := in.accs[i].Append(text); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConversion, "convert "+in.table.Name).
				WithDetail("row", in.rows+1)
		}
	}
	in.pending++
	in.rows++
	return nil
}

func (in *Ingestor) flush(span trace.Span) error {
	in.state = Flushing

	cols := make([]arrow.Array, len(in.accs))
	for i, a := range in.accs {
		cols[i] = a.Finish()
	}
	rows := in.pending
	chunk, err := columnar.NewChunk(in.chunks, in.schema, cols, rows)
	in.resetAccumulators()
	if err != nil {
		return err
	}

	err = in.handler.WriteChunk(chunk)
	chunk.Release()
	if err != nil {
		return err
	}

	span.AddEvent("chunk.flushed", trace.WithAttributes(
		attribute.Int("chunk", in.chunks),
		attribute.Int("rows", rows),
	))
	metrics.ChunksFlushed.WithLabelValues(in.table.Name).Inc()
	metrics.RowsIngested.WithLabelValues(in.table.Name).Add(float64(rows))
	in.tracker.Increment(int64(rows))

	in.chunks++
	in.state = Reading
	return nil
}

func (in *Ingestor) fail(err error) error {
	in.state = Failed
	if e, ok := err.(*errors.Error); ok {
		return e.WithDetail("table", in.table.Name)
	}
	return err
}

func (in *Ingestor) resetAccumulators() {
	capacity := in.chunkRows
	in.accs = make([]*columnar.Accumulator, len(in.table.Columns))
	for i, c := range in.table.Columns {
		in.accs[i] = columnar.NewAccumulator(in.mem, c, capacity)
	}
	in.pending = 0
}

func (in *Ingestor) releaseAccumulators() {
	for _, a := range in.accs {
		a.Release()
	}
}

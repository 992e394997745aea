package formats

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/metrics"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

const sinkBufferSize = 1 << 20

// sink is one open artifact: file <- buffer <- byte counter <- format writer.
type sink struct {
	format Format
	path   string
	file   *os.File
	buf    *bufio.Writer
	count  *writeCounter
	writer Writer
	logger *zap.Logger
	closed bool
}

func openSink(f Format, path string, table schema.TableSpec, config *WriterConfig) (*sink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	s := &sink{format: f, path: path, file: file}
	s.buf = bufio.NewWriterSize(file, sinkBufferSize)
	s.count = &writeCounter{w: s.buf}

	s.writer, err = NewWriter(f, s.count, table.ArrowSchema(), config)
	if err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

// close finalizes the encoder, flushes the buffer and closes the file. The
// file handle is released even when an earlier step fails.
func (s *sink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.writer.Close()
	if err == nil {
		err = s.buf.Flush()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// SinkSet holds the four open artifacts of one table. It is owned by a
// single ingestion run and is not safe for concurrent use.
type SinkSet struct {
	table  string
	sinks  []*sink
	logger *zap.Logger
	closed bool
}

// OpenSinkSet creates <outputDir>/<table>.<ext> for every format, all
// sharing the schema derived from the table's columns. If any artifact
// cannot be created, the ones already opened are closed and the error is
// returned; files already created are left in place.
func OpenSinkSet(table schema.TableSpec, outputDir string, config *WriterConfig) (*SinkSet, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid writer configuration")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("path", outputDir)
	}

	ctx := logger.ContextWithTable(context.Background(), table.Name)
	set := &SinkSet{
		table:  table.Name,
		logger: logger.WithContext(ctx),
	}

	for _, f := range All() {
		path := filepath.Join(outputDir, table.Name+"."+config.ArtifactExtension(f))
		s, err := openSink(f, path, table, config)
		if err != nil {
			set.Abort()
			return nil, encodingError(f, table.Name, "open", err).WithDetail("path", path)
		}
		s.logger = logger.WithContext(logger.ContextWithFormat(ctx, string(f)))
		set.sinks = append(set.sinks, s)
	}

	set.logger.Debug("sinks opened", zap.Strings("paths", set.Paths()))
	return set, nil
}

// WriteChunk appends one chunk to every sink in order. The first failing
// format aborts the call with an encoding error naming that format. The
// set keeps no reference to the chunk once WriteChunk returns.
func (s *SinkSet) WriteChunk(chunk *columnar.Chunk) error {
	if s.closed {
		return errors.New(errors.ErrorTypeInternal, "write to closed sink set").
			WithDetail("table", s.table)
	}
	if chunk == nil || chunk.NumRows() == 0 {
		return errors.New(errors.ErrorTypeInternal, "empty chunk").
			WithDetail("table", s.table)
	}

	rec := chunk.Record()
	for _, sk := range s.sinks {
		before := sk.count.n
		timer := metrics.NewTimer()

		if err := sk.writer.Write(rec); err != nil {
			sk.logger.Warn("chunk write failed", zap.Int("chunk", chunk.Seq()), zap.Error(err))
			return encodingError(sk.format, s.table, "write", err).
				WithDetail("chunk", chunk.Seq())
		}

		metrics.EncodeLatency.WithLabelValues(string(sk.format)).Observe(timer.Stop().Seconds())
		metrics.BytesWritten.WithLabelValues(string(sk.format)).Add(float64(sk.count.n - before))
	}

	s.logger.Debug("chunk written",
		zap.Int("chunk", chunk.Seq()),
		zap.Int64("rows", chunk.NumRows()))
	return nil
}

// Close finalizes every sink in the fixed format order. All sinks are
// closed even after a failure; the first failure is returned. Partial
// artifacts are left on disk for the caller to remove.
func (s *SinkSet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var first error
	for _, sk := range s.sinks {
		if err := sk.close(); err != nil {
			sk.logger.Warn("sink close failed", zap.Error(err))
			if first == nil {
				first = encodingError(sk.format, s.table, "close", err)
			}
			continue
		}
		sk.logger.Debug("sink closed",
			zap.Int64("rows", sk.writer.RowsWritten()),
			zap.Int("batches", sk.writer.BatchesWritten()),
			zap.Int64("bytes", sk.count.n))
	}
	return first
}

// Abort closes every sink, ignoring errors. Used when ingestion fails and
// the artifacts are going to be discarded.
func (s *SinkSet) Abort() {
	s.closed = true
	for _, sk := range s.sinks {
		_ = sk.close()
	}
}

// Paths returns the artifact paths in format order.
func (s *SinkSet) Paths() []string {
	paths := make([]string, len(s.sinks))
	for i, sk := range s.sinks {
		paths[i] = sk.path
	}
	return paths
}

// Path returns the artifact path for one format.
func (s *SinkSet) Path(f Format) (string, bool) {
	for _, sk := range s.sinks {
		if sk.format == f {
			return sk.path, true
		}
	}
	return "", false
}

// Stats reports rows, batches and bytes written per format.
func (s *SinkSet) Stats() map[Format]SinkStats {
	out := make(map[Format]SinkStats, len(s.sinks))
	for _, sk := range s.sinks {
		out[sk.format] = SinkStats{
			Rows:    sk.writer.RowsWritten(),
			Batches: sk.writer.BatchesWritten(),
			Bytes:   sk.count.n,
		}
	}
	return out
}

// SinkStats summarizes what one sink has written.
type SinkStats struct {
	Rows    int64 `json:"rows"`
	Batches int   `json:"batches"`
	Bytes   int64 `json:"bytes"`
}

// Remove deletes the artifacts of this set. The set must be closed.
func (s *SinkSet) Remove() error {
	var first error
	for _, sk := range s.sinks {
		if err := os.Remove(sk.path); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}

func encodingError(f Format, table, op string, cause error) *errors.Error {
	return errors.Wrap(cause, errors.ErrorTypeEncoding, string(f)+" "+op+" failed").
		WithCode(errors.CodeEncoding).
		WithDetail("format", string(f)).
		WithDetail("table", table)
}

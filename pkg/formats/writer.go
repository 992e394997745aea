package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/compression"
)

// Writer encodes record batches into one output format.
type Writer interface {
	// Write encodes one record batch. Parquet starts a new row group per
	// call, the IPC writers emit one record batch message per call.
	Write(rec arrow.Record) error
	// Close finalizes the format (footers, trailers, codec flush). It does
	// not close the destination io.Writer.
	Close() error
	// Format returns the output format
	Format() Format
	// RowsWritten returns rows written
	RowsWritten() int64
	// BatchesWritten returns record batches written
	BatchesWritten() int
}

// WriterConfig configures format writers
type WriterConfig struct {
	// Allocator backs encoder buffers; nil means memory.DefaultAllocator
	Allocator memory.Allocator
	// ParquetCompression is one of snappy, zstd, gzip, lz4, none
	ParquetCompression string
	// IPCCompression is one of none, zstd, lz4
	IPCCompression string
	// CSVCompression compresses the whole CSV artifact
	CSVCompression compression.Algorithm
	// RowGroupSize caps rows per Parquet row group
	RowGroupSize int64
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Allocator:          memory.DefaultAllocator,
		ParquetCompression: "snappy",
		IPCCompression:     "none",
		CSVCompression:     compression.None,
		RowGroupSize:       columnar.MaxChunkRows,
	}
}

// Validate checks the compression settings.
func (c *WriterConfig) Validate() error {
	if _, err := parquetCodec(c.ParquetCompression); err != nil {
		return err
	}
	switch strings.ToLower(c.IPCCompression) {
	case "", "none", "zstd", "lz4":
	default:
		return fmt.Errorf("unsupported IPC compression: %s", c.IPCCompression)
	}
	if _, err := compression.ParseAlgorithm(string(c.CSVCompression)); err != nil {
		return err
	}
	if c.RowGroupSize < 0 {
		return fmt.Errorf("row group size must not be negative: %d", c.RowGroupSize)
	}
	return nil
}

func (c *WriterConfig) allocator() memory.Allocator {
	if c.Allocator == nil {
		return memory.DefaultAllocator
	}
	return c.Allocator
}

// ArtifactExtension returns the file extension for f under this config.
func (c *WriterConfig) ArtifactExtension(f Format) string {
	if f == CSV {
		return f.Extension() + c.CSVCompression.Extension()
	}
	return f.Extension()
}

// NewWriter creates a writer for format f that encodes into w. The schema
// header is produced lazily or at Close, so a writer that never sees a
// record still yields a valid empty artifact.
func NewWriter(f Format, w io.Writer, schema *arrow.Schema, config *WriterConfig) (Writer, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required for %s writer", f)
	}
	if config == nil {
		config = DefaultWriterConfig()
	}

	switch f {
	case Parquet:
		return newParquetWriter(w, schema, config)
	case ArrowFile:
		return newArrowFileWriter(w, schema, config)
	case ArrowStream:
		return newArrowStreamWriter(w, schema, config)
	case CSV:
		return newCSVWriter(w, schema, config)
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
}

// writeCounter counts bytes passed to the destination. It must not
// implement io.Closer: encoders close Closers they were handed.
type writeCounter struct {
	w io.Writer
	n int64
}

func (c *writeCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

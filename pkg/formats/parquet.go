package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// parquetWriter implements Writer for Parquet format
type parquetWriter struct {
	fileWriter     *pqarrow.FileWriter
	rowsWritten    int64
	batchesWritten int
}

func newParquetWriter(w io.Writer, schema *arrow.Schema, config *WriterConfig) (*parquetWriter, error) {
	codec, err := parquetCodec(config.ParquetCompression)
	if err != nil {
		return nil, err
	}

	rowGroup := config.RowGroupSize
	if rowGroup <= 0 {
		rowGroup = DefaultWriterConfig().RowGroupSize
	}

	props := parquet.NewWriterProperties(
		parquet.WithAllocator(config.allocator()),
		parquet.WithCompression(codec),
		parquet.WithMaxRowGroupLength(rowGroup),
		parquet.WithDictionaryDefault(true),
		parquet.WithStats(true),
	)

	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(config.allocator()),
		pqarrow.WithStoreSchema(),
	)

	fw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet writer: %w", err)
	}

	return &parquetWriter{fileWriter: fw}, nil
}

func (pw *parquetWriter) Write(rec arrow.Record) error {
	if err := pw.fileWriter.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	pw.rowsWritten += rec.NumRows()
	pw.batchesWritten++
	return nil
}

func (pw *parquetWriter) Close() error {
	if err := pw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}

func (pw *parquetWriter) Format() Format {
	return Parquet
}

func (pw *parquetWriter) RowsWritten() int64 {
	return pw.rowsWritten
}

func (pw *parquetWriter) BatchesWritten() int {
	return pw.batchesWritten
}

func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported Parquet compression: %s", name)
	}
}

package formats

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/formatbench/pkg/columnar"
	"github.com/ajitpratap0/formatbench/pkg/compression"
)

// RecordReader iterates the record batches of one artifact. A Record is
// valid until the next call to Next.
type RecordReader interface {
	Schema() *arrow.Schema
	Next() bool
	Record() arrow.Record
	Err() error
	Close() error
}

// ReaderConfig configures artifact readers
type ReaderConfig struct {
	Allocator memory.Allocator
	// Schema is required to decode CSV, which carries no type information
	Schema *arrow.Schema
	// CSVCompression must match what the artifact was written with
	CSVCompression compression.Algorithm
	BatchSize      int64
}

func (c *ReaderConfig) allocator() memory.Allocator {
	if c.Allocator == nil {
		return memory.DefaultAllocator
	}
	return c.Allocator
}

// NewReader opens the artifact at path written in format f.
func NewReader(f Format, path string, config *ReaderConfig) (RecordReader, error) {
	if config == nil {
		config = &ReaderConfig{}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = columnar.MaxChunkRows
	}

	switch f {
	case Parquet:
		return newParquetReader(path, config)
	case ArrowFile:
		return newArrowFileReader(path, config)
	case ArrowStream:
		return newArrowStreamReader(path, config)
	case CSV:
		return newCSVReader(path, config)
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
}

// parquetReader implements RecordReader for Parquet format
type parquetReader struct {
	fileReader   *file.Reader
	recordReader pqarrow.RecordReader
}

func newParquetReader(path string, config *ReaderConfig) (*parquetReader, error) {
	fr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{
		BatchSize: config.BatchSize,
	}, config.allocator())
	if err != nil {
		fr.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	rr, err := arrowReader.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		fr.Close()
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}

	return &parquetReader{fileReader: fr, recordReader: rr}, nil
}

func (pr *parquetReader) Schema() *arrow.Schema { return pr.recordReader.Schema() }
func (pr *parquetReader) Next() bool            { return pr.recordReader.Next() }
func (pr *parquetReader) Record() arrow.Record  { return pr.recordReader.Record() }

func (pr *parquetReader) Err() error {
	if err := pr.recordReader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (pr *parquetReader) Close() error {
	pr.recordReader.Release()
	return pr.fileReader.Close()
}

// NumRowGroups returns the row group count from the file footer.
func (pr *parquetReader) NumRowGroups() int {
	return pr.fileReader.NumRowGroups()
}

// arrowFileReader implements RecordReader for the Arrow IPC file format
type arrowFileReader struct {
	file    *os.File
	reader  *ipc.FileReader
	current arrow.Record
	index   int
	err     error
}

func newArrowFileReader(path string, config *ReaderConfig) (*arrowFileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := ipc.NewFileReader(f, ipc.WithAllocator(config.allocator()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}
	return &arrowFileReader{file: f, reader: r}, nil
}

func (ar *arrowFileReader) Schema() *arrow.Schema { return ar.reader.Schema() }

func (ar *arrowFileReader) Next() bool {
	if ar.err != nil || ar.index >= ar.reader.NumRecords() {
		return false
	}
	// Record(i) owns the batch until the next call
	ar.current, ar.err = ar.reader.Record(ar.index)
	ar.index++
	return ar.err == nil
}

func (ar *arrowFileReader) Record() arrow.Record { return ar.current }
func (ar *arrowFileReader) Err() error           { return ar.err }

func (ar *arrowFileReader) Close() error {
	if err := ar.reader.Close(); err != nil {
		ar.file.Close()
		return err
	}
	return ar.file.Close()
}

// arrowStreamReader implements RecordReader for the Arrow IPC stream format
type arrowStreamReader struct {
	file   *os.File
	reader *ipc.Reader
}

func newArrowStreamReader(path string, config *ReaderConfig) (*arrowStreamReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := ipc.NewReader(bufio.NewReader(f), ipc.WithAllocator(config.allocator()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow stream reader: %w", err)
	}
	return &arrowStreamReader{file: f, reader: r}, nil
}

func (sr *arrowStreamReader) Schema() *arrow.Schema { return sr.reader.Schema() }
func (sr *arrowStreamReader) Next() bool            { return sr.reader.Next() }
func (sr *arrowStreamReader) Record() arrow.Record  { return sr.reader.Record() }
func (sr *arrowStreamReader) Err() error            { return sr.reader.Err() }

func (sr *arrowStreamReader) Close() error {
	sr.reader.Release()
	return sr.file.Close()
}

// csvReader implements RecordReader for CSV, typed by ReaderConfig.Schema.
type csvReader struct {
	file   *os.File
	codec  io.ReadCloser
	schema *arrow.Schema
	reader *arrowcsv.Reader // nil for an empty artifact
}

func newCSVReader(path string, config *ReaderConfig) (*csvReader, error) {
	if config.Schema == nil {
		return nil, fmt.Errorf("schema is required to read CSV")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	codec, err := compression.NewReader(bufio.NewReader(f), config.CSVCompression)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create CSV decompressor: %w", err)
	}

	cr := &csvReader{file: f, codec: codec, schema: config.Schema}

	// An empty table produces an artifact without a header row
	br := bufio.NewReader(codec)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return cr, nil
		}
		cr.Close()
		return nil, err
	}

	cr.reader = arrowcsv.NewReader(br, config.Schema,
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(int(config.BatchSize)),
		arrowcsv.WithNullReader(true, ""),
		arrowcsv.WithAllocator(config.allocator()),
	)
	return cr, nil
}

func (cr *csvReader) Schema() *arrow.Schema { return cr.schema }

func (cr *csvReader) Next() bool {
	return cr.reader != nil && cr.reader.Next()
}

func (cr *csvReader) Record() arrow.Record {
	if cr.reader == nil {
		return nil
	}
	return cr.reader.Record()
}

func (cr *csvReader) Err() error {
	if cr.reader == nil {
		return nil
	}
	if err := cr.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (cr *csvReader) Close() error {
	if cr.reader != nil {
		cr.reader.Release()
	}
	cr.codec.Close()
	return cr.file.Close()
}

// Summary describes an artifact after a full read.
type Summary struct {
	Format  Format `json:"format"`
	Path    string `json:"path"`
	Rows    int64  `json:"rows"`
	Batches int    `json:"batches"`
	Bytes   int64  `json:"bytes"`
	// RowGroups is only set for Parquet
	RowGroups int `json:"row_groups,omitempty"`
}

// ReadBack reads the artifact at path to the end, checking that it decodes
// and that every batch matches the expected schema when one is given.
func ReadBack(f Format, path string, config *ReaderConfig) (Summary, error) {
	s := Summary{Format: f, Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return s, err
	}
	s.Bytes = info.Size()

	r, err := NewReader(f, path, config)
	if err != nil {
		return s, err
	}
	defer r.Close()

	if pr, ok := r.(*parquetReader); ok {
		s.RowGroups = pr.NumRowGroups()
	}

	var expected *arrow.Schema
	if config != nil {
		expected = config.Schema
	}

	for r.Next() {
		rec := r.Record()
		if expected != nil && !typesMatch(expected, rec.Schema()) {
			return s, fmt.Errorf("%s: schema mismatch: got %s", path, rec.Schema())
		}
		s.Rows += rec.NumRows()
		s.Batches++
	}
	if err := r.Err(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// typesMatch compares names and types, ignoring metadata.
func typesMatch(want, got *arrow.Schema) bool {
	if want.NumFields() != got.NumFields() {
		return false
	}
	for i := 0; i < want.NumFields(); i++ {
		a, b := want.Field(i), got.Field(i)
		if a.Name != b.Name || !arrow.TypeEqual(a.Type, b.Type) {
			return false
		}
	}
	return true
}

// Collect reads every batch into a single table-shaped slice of records.
// The caller must Release each record. Intended for small artifacts.
func Collect(r RecordReader) ([]arrow.Record, error) {
	var out []arrow.Record
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		out = append(out, rec)
	}
	if err := r.Err(); err != nil {
		for _, rec := range out {
			rec.Release()
		}
		return nil, err
	}
	return out, nil
}

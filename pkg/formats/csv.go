package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/formatbench/pkg/compression"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

// csvWriter implements Writer for CSV. Values are rendered from the typed
// arrays: decimals keep exactly their declared scale, dates are ISO
// YYYY-MM-DD and nulls are empty fields.
type csvWriter struct {
	codec          io.WriteCloser
	writer         *csv.Writer
	schema         *arrow.Schema
	headerWritten  bool
	row            []string
	rowsWritten    int64
	batchesWritten int
}

func newCSVWriter(w io.Writer, schema *arrow.Schema, config *WriterConfig) (*csvWriter, error) {
	codec, err := compression.NewWriter(w, config.CSVCompression, compression.Default)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV compressor: %w", err)
	}

	return &csvWriter{
		codec:  codec,
		writer: csv.NewWriter(codec),
		schema: schema,
		row:    make([]string, schema.NumFields()),
	}, nil
}

func (cw *csvWriter) Write(rec arrow.Record) error {
	if rec.NumRows() == 0 {
		return nil
	}
	if !rec.Schema().Equal(cw.schema) {
		return fmt.Errorf("record schema does not match writer schema")
	}

	if !cw.headerWritten {
		for i, f := range cw.schema.Fields() {
			cw.row[i] = f.Name
		}
		if err := cw.writer.Write(cw.row); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		cw.headerWritten = true
	}

	cols := rec.Columns()
	for r := 0; r < int(rec.NumRows()); r++ {
		for c, col := range cols {
			cell, err := formatCell(col, r)
			if err != nil {
				return fmt.Errorf("column %s: %w", cw.schema.Field(c).Name, err)
			}
			cw.row[c] = cell
		}
		if err := cw.writer.Write(cw.row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	cw.rowsWritten += rec.NumRows()
	cw.batchesWritten++
	return nil
}

func (cw *csvWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	if err := cw.codec.Close(); err != nil {
		return fmt.Errorf("failed to close CSV compressor: %w", err)
	}
	return nil
}

func (cw *csvWriter) Format() Format {
	return CSV
}

func (cw *csvWriter) RowsWritten() int64 {
	return cw.rowsWritten
}

func (cw *csvWriter) BatchesWritten() int {
	return cw.batchesWritten
}

func formatCell(col arrow.Array, i int) (string, error) {
	if col.IsNull(i) {
		return "", nil
	}

	switch c := col.(type) {
	case *array.Int32:
		return strconv.FormatInt(int64(c.Value(i)), 10), nil
	case *array.Int64:
		return strconv.FormatInt(c.Value(i), 10), nil
	case *array.Float64:
		return strconv.FormatFloat(c.Value(i), 'g', -1, 64), nil
	case *array.String:
		return c.Value(i), nil
	case *array.Date32:
		return types.FormatDate(int32(c.Value(i))), nil
	case *array.Decimal128:
		scale := c.DataType().(*arrow.Decimal128Type).Scale
		return c.Value(i).ToString(scale), nil
	default:
		return "", fmt.Errorf("unsupported array type: %s", col.DataType())
	}
}

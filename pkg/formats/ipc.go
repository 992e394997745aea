package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

func ipcOptions(schema *arrow.Schema, config *WriterConfig) []ipc.Option {
	opts := []ipc.Option{
		ipc.WithSchema(schema),
		ipc.WithAllocator(config.allocator()),
	}
	switch strings.ToLower(config.IPCCompression) {
	case "zstd":
		opts = append(opts, ipc.WithZstd())
	case "lz4":
		opts = append(opts, ipc.WithLZ4())
	}
	return opts
}

// arrowFileWriter implements Writer for the Arrow IPC file format
type arrowFileWriter struct {
	fileWriter     *ipc.FileWriter
	rowsWritten    int64
	batchesWritten int
}

func newArrowFileWriter(w io.Writer, schema *arrow.Schema, config *WriterConfig) (*arrowFileWriter, error) {
	fw, err := ipc.NewFileWriter(w, ipcOptions(schema, config)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow file writer: %w", err)
	}
	return &arrowFileWriter{fileWriter: fw}, nil
}

func (aw *arrowFileWriter) Write(rec arrow.Record) error {
	if err := aw.fileWriter.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	aw.rowsWritten += rec.NumRows()
	aw.batchesWritten++
	return nil
}

func (aw *arrowFileWriter) Close() error {
	if err := aw.fileWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Arrow file writer: %w", err)
	}
	return nil
}

func (aw *arrowFileWriter) Format() Format {
	return ArrowFile
}

func (aw *arrowFileWriter) RowsWritten() int64 {
	return aw.rowsWritten
}

func (aw *arrowFileWriter) BatchesWritten() int {
	return aw.batchesWritten
}

// arrowStreamWriter implements Writer for the Arrow IPC stream format
type arrowStreamWriter struct {
	streamWriter   *ipc.Writer
	rowsWritten    int64
	batchesWritten int
}

func newArrowStreamWriter(w io.Writer, schema *arrow.Schema, config *WriterConfig) (*arrowStreamWriter, error) {
	return &arrowStreamWriter{
		streamWriter: ipc.NewWriter(w, ipcOptions(schema, config)...),
	}, nil
}

func (sw *arrowStreamWriter) Write(rec arrow.Record) error {
	if err := sw.streamWriter.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	sw.rowsWritten += rec.NumRows()
	sw.batchesWritten++
	return nil
}

func (sw *arrowStreamWriter) Close() error {
	if err := sw.streamWriter.Close(); err != nil {
		return fmt.Errorf("failed to close Arrow stream writer: %w", err)
	}
	return nil
}

func (sw *arrowStreamWriter) Format() Format {
	return ArrowStream
}

func (sw *arrowStreamWriter) RowsWritten() int64 {
	return sw.rowsWritten
}

func (sw *arrowStreamWriter) BatchesWritten() int {
	return sw.batchesWritten
}

// Package formats encodes record batches into the benchmark's output
// formats and reads the artifacts back.
//
// Every table is written to four artifacts side by side: Parquet, the Arrow
// IPC file format, the Arrow IPC stream format and CSV with a header row.
// A SinkSet owns the four writers of one table and fans each chunk out to
// them in a fixed order.
package formats

import (
	"fmt"
	"strings"
)

// Format represents an output storage format
type Format string

const (
	// Parquet is Apache Parquet
	Parquet Format = "parquet"
	// ArrowFile is the Arrow IPC file format (random access, with footer)
	ArrowFile Format = "arrow"
	// ArrowStream is the Arrow IPC stream format
	ArrowStream Format = "arrows"
	// CSV is comma separated text with a header row
	CSV Format = "csv"
)

// All returns the output formats in the order sinks are opened, written
// and closed.
func All() []Format {
	return []Format{Parquet, ArrowFile, ArrowStream, CSV}
}

// ParseFormat maps a name onto a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case Parquet, ArrowFile, ArrowStream, CSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", name)
}

// Extension returns the file extension without the leading dot. Compressed
// CSV artifacts add the codec suffix on top of it.
func (f Format) Extension() string {
	return string(f)
}

// FormatInfo describes an output format
type FormatInfo struct {
	Format        Format
	Name          string
	FileExtension string
	MIMEType      string
	Columnar      bool
}

// GetFormatInfo returns information about an output format
func GetFormatInfo(format Format) *FormatInfo {
	switch format {
	case Parquet:
		return &FormatInfo{
			Format:        Parquet,
			Name:          "Apache Parquet",
			FileExtension: ".parquet",
			MIMEType:      "application/vnd.apache.parquet",
			Columnar:      true,
		}
	case ArrowFile:
		return &FormatInfo{
			Format:        ArrowFile,
			Name:          "Apache Arrow IPC file",
			FileExtension: ".arrow",
			MIMEType:      "application/vnd.apache.arrow.file",
			Columnar:      true,
		}
	case ArrowStream:
		return &FormatInfo{
			Format:        ArrowStream,
			Name:          "Apache Arrow IPC stream",
			FileExtension: ".arrows",
			MIMEType:      "application/vnd.apache.arrow.stream",
			Columnar:      true,
		}
	case CSV:
		return &FormatInfo{
			Format:        CSV,
			Name:          "Comma separated values",
			FileExtension: ".csv",
			MIMEType:      "text/csv",
		}
	default:
		return nil
	}
}

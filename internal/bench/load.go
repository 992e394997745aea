package bench

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/formats"
	"github.com/ajitpratap0/formatbench/pkg/schema"
)

// Tbl names the raw pipe-delimited source as a benchmark format
const Tbl = "tbl"

// DefaultFormats is the benchmark column order
var DefaultFormats = []string{
	string(formats.Parquet),
	string(formats.ArrowFile),
	string(formats.ArrowStream),
	string(formats.CSV),
	Tbl,
}

// LoadSQL returns the statement that loads path, stored in format, into
// table. The table must already exist.
func LoadSQL(table, format, path string) (string, error) {
	p := quote(path)
	switch format {
	case string(formats.Parquet):
		return fmt.Sprintf("COPY %s FROM %s (FORMAT PARQUET)", table, p), nil
	case string(formats.CSV):
		return fmt.Sprintf("COPY %s FROM %s (FORMAT CSV, DELIMITER ',', HEADER TRUE)", table, p), nil
	case Tbl:
		return fmt.Sprintf("COPY %s FROM %s (FORMAT CSV, DELIMITER '|', HEADER FALSE)", table, p), nil
	case string(formats.ArrowFile), string(formats.ArrowStream):
		return fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", table, p), nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, errors.CodeUnknownType,
			"no load statement for format %q", format)
	}
}

// ArtifactPath returns where the file for format lives. The tbl format
// loads the table's own source file.
func ArtifactPath(table schema.TableSpec, format, outputDir string, writer *formats.WriterConfig) string {
	if format == Tbl {
		return table.SourcePath
	}
	f := formats.Format(format)
	if writer == nil {
		return table.OutputPath(outputDir, f.Extension())
	}
	return table.OutputPath(outputDir, writer.ArtifactExtension(f))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

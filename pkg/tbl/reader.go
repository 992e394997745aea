// Package tbl reads pipe-delimited TPC-H style .tbl files row by row.
//
// Each line is split on '|'. A single trailing delimiter is a terminator
// artifact and yields no extra field, a trailing carriage return is dropped,
// and blank lines are skipped. Rows are produced lazily in a single pass.
package tbl

import (
	"io"
	"iter"
	"strings"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/mmap"
)

// Delimiter separates fields on a line
const Delimiter = '|'

// RawRow is the text of one line split into fields
type RawRow []string

// Reader yields RawRows from one source
type Reader struct {
	path    string
	lines   *mmap.LineReader
	columns int
	line    int64
	fields  []string
}

// Open maps the file at path and reads rows that must have columnCount
// fields each.
func Open(path string, columnCount int) (*Reader, error) {
	lines, err := mmap.NewLineReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSource, "cannot read source").
			WithCode(errors.CodeUnreadableSource).
			WithDetail("path", path)
	}
	return newReader(path, lines, columnCount), nil
}

// NewReader reads rows from an in-memory source
func NewReader(data []byte, columnCount int) *Reader {
	return newReader("", mmap.NewLineReaderBytes(data), columnCount)
}

func newReader(path string, lines *mmap.LineReader, columnCount int) *Reader {
	return &Reader{
		path:    path,
		lines:   lines,
		columns: columnCount,
		fields:  make([]string, 0, columnCount+1),
	}
}

// Next returns the next non-blank row, or io.EOF when the source is
// exhausted. The returned row is only valid until the following call.
func (r *Reader) Next() (RawRow, error) {
	for {
		raw, ok := r.lines.Next()
		if !ok {
			return nil, io.EOF
		}
		r.line++

		line := string(raw)
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		r.fields = splitInto(r.fields[:0], line)
		if len(r.fields) != r.columns {
			return nil, errors.Newf(errors.ErrorTypeSource, errors.CodeFieldCountMismatch,
				"line %d: expected %d fields, got %d", r.line, r.columns, len(r.fields)).
				WithDetail("path", r.path).
				WithDetail("line", r.line).
				WithDetail("expected", r.columns).
				WithDetail("actual", len(r.fields))
		}
		return r.fields, nil
	}
}

// Rows exposes the reader as a lazy sequence. Iteration stops after the
// first error is yielded.
func (r *Reader) Rows() iter.Seq2[RawRow, error] {
	return func(yield func(RawRow, error) bool) {
		for {
			row, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(row, err) || err != nil {
				return
			}
		}
	}
}

// Line returns the 1-based number of the line last read
func (r *Reader) Line() int64 {
	return r.line
}

// Progress returns bytes consumed and total bytes of the source
func (r *Reader) Progress() (consumed, total int64) {
	return r.lines.Offset(), r.lines.Size()
}

// Close releases the source
func (r *Reader) Close() error {
	return r.lines.Close()
}

// SplitLine splits one line the way Reader does, without the blank line
// and field count checks.
func SplitLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil
	}
	return splitInto(nil, line)
}

func splitInto(dst []string, line string) []string {
	for {
		i := strings.IndexByte(line, Delimiter)
		if i < 0 {
			dst = append(dst, line)
			break
		}
		dst = append(dst, line[:i])
		line = line[i+1:]
	}
	if n := len(dst); n > 1 && dst[n-1] == "" {
		dst = dst[:n-1]
	}
	return dst
}

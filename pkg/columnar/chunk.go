package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// Chunk is a batch of at most MaxChunkRows rows held fully in memory
// between ingestion and encoding
type Chunk struct {
	seq    int
	record arrow.Record
}

// NewChunk assembles finished column segments into a chunk. Every segment
// must have exactly rows slots. NewChunk takes ownership of columns.
func NewChunk(seq int, s *arrow.Schema, columns []arrow.Array, rows int) (*Chunk, error) {
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()

	if rows > MaxChunkRows {
		return nil, errors.Newf(errors.ErrorTypeInternal, "", "chunk of %d rows exceeds %d", rows, MaxChunkRows)
	}
	if len(columns) != s.NumFields() {
		return nil, errors.Newf(errors.ErrorTypeInternal, "", "chunk has %d columns, schema has %d",
			len(columns), s.NumFields())
	}
	for i, c := range columns {
		if c.Len() != rows {
			return nil, errors.Newf(errors.ErrorTypeInternal, "", "column %s has %d slots, chunk has %d rows",
				s.Field(i).Name, c.Len(), rows)
		}
	}

	return &Chunk{seq: seq, record: array.NewRecord(s, columns, int64(rows))}, nil
}

// Seq returns the 0-based position of the chunk within its table
func (c *Chunk) Seq() int {
	return c.seq
}

// NumRows returns the row count
func (c *Chunk) NumRows() int64 {
	return c.record.NumRows()
}

// Record exposes the chunk as an arrow record. The record is only valid
// until Release.
func (c *Chunk) Record() arrow.Record {
	return c.record
}

// Release drops the chunk's column data
func (c *Chunk) Release() {
	if c.record != nil {
		c.record.Release()
		c.record = nil
	}
}

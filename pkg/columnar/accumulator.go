package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/schema"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

// MaxChunkRows is the flush threshold of the ingestor and the row-group
// size of the parquet encoding
const MaxChunkRows = 122880

// Accumulator converts one column's fields and appends them positionally
// to an arrow builder
type Accumulator struct {
	spec    schema.ColumnSpec
	builder array.Builder
	spent   bool
}

// NewAccumulator returns an accumulator for spec. capacity is a hint for
// the number of rows the chunk will hold.
func NewAccumulator(mem memory.Allocator, spec schema.ColumnSpec, capacity int) *Accumulator {
	dt := spec.ArrowField().Type
	b := array.NewBuilder(mem, dt)
	if capacity > 0 {
		b.Reserve(capacity)
	}
	return &Accumulator{spec: spec, builder: b}
}

// Spec returns the column spec the accumulator converts for
func (a *Accumulator) Spec() schema.ColumnSpec {
	return a.spec
}

// Append converts text and records the value or null. On a conversion
// error nothing is appended.
func (a *Accumulator) Append(text string) error {
	if a.spent {
		return errors.Newf(errors.ErrorTypeInternal, "", "accumulator for %s used after Finish", a.spec.Name)
	}
	v, err := a.spec.Convert(text)
	if err != nil {
		return err
	}
	return a.AppendValue(v)
}

// AppendValue records an already converted value
func (a *Accumulator) AppendValue(v types.Value) error {
	if a.spent {
		return errors.Newf(errors.ErrorTypeInternal, "", "accumulator for %s used after Finish", a.spec.Name)
	}
	if v.Null {
		a.builder.AppendNull()
		return nil
	}

	switch b := a.builder.(type) {
	case *array.Int32Builder:
		b.Append(v.Int32())
	case *array.Int64Builder:
		b.Append(v.Int)
	case *array.Float64Builder:
		b.Append(v.Float)
	case *array.StringBuilder:
		b.Append(v.Str)
	case *array.Date32Builder:
		b.Append(v.Date32())
	case *array.Decimal128Builder:
		b.Append(v.Dec)
	default:
		return errors.Newf(errors.ErrorTypeInternal, "", "unsupported builder type %T", a.builder)
	}
	return nil
}

// Len returns the number of appended slots, nulls included
func (a *Accumulator) Len() int {
	if a.spent {
		return 0
	}
	return a.builder.Len()
}

// Finish returns the immutable column segment and spends the accumulator.
// The caller owns the returned array.
func (a *Accumulator) Finish() arrow.Array {
	arr := a.builder.NewArray()
	a.builder.Release()
	a.spent = true
	return arr
}

// Release discards the accumulator without producing a segment
func (a *Accumulator) Release() {
	if !a.spent {
		a.builder.Release()
		a.spent = true
	}
}

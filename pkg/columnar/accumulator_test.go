package columnar

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/schema"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

func mustColumn(t *testing.T, name string, kind types.Kind, precision, scale int32) schema.ColumnSpec {
	t.Helper()
	c, err := schema.NewColumn(name, kind, precision, scale)
	require.NoError(t, err)
	return c
}

func TestAccumulator_Kinds(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	tests := []struct {
		spec  schema.ColumnSpec
		texts []string
		check func(t *testing.T, arr arrow.Array)
	}{
		{
			spec:  mustColumn(t, "i32", types.Int32, 0, 0),
			texts: []string{"1", "", "-3"},
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Int32)
				assert.Equal(t, int32(1), a.Value(0))
				assert.True(t, a.IsNull(1))
				assert.Equal(t, int32(-3), a.Value(2))
			},
		},
		{
			spec:  mustColumn(t, "i64", types.Int64, 0, 0),
			texts: []string{"6000000000", `\N`},
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Int64)
				assert.Equal(t, int64(6000000000), a.Value(0))
				assert.True(t, a.IsNull(1))
			},
		},
		{
			spec:  mustColumn(t, "f", types.Float64, 0, 0),
			texts: []string{"0.04"},
			check: func(t *testing.T, arr arrow.Array) {
				assert.Equal(t, 0.04, arr.(*array.Float64).Value(0))
			},
		},
		{
			spec:  mustColumn(t, "s", types.Utf8, 0, 0),
			texts: []string{"ALGERIA", ""},
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.String)
				assert.Equal(t, "ALGERIA", a.Value(0))
				assert.True(t, a.IsNull(1))
			},
		},
		{
			spec:  mustColumn(t, "d", types.Date32, 0, 0),
			texts: []string{"1970-01-02"},
			check: func(t *testing.T, arr arrow.Array) {
				assert.Equal(t, arrow.Date32(1), arr.(*array.Date32).Value(0))
			},
		},
		{
			spec:  mustColumn(t, "dec", types.Decimal128, 12, 2),
			texts: []string{"42.1", "-7"},
			check: func(t *testing.T, arr arrow.Array) {
				a := arr.(*array.Decimal128)
				assert.Equal(t, decimal128.FromI64(4210), a.Value(0))
				assert.Equal(t, decimal128.FromI64(-700), a.Value(1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.spec.Name, func(t *testing.T) {
			acc := NewAccumulator(mem, tt.spec, len(tt.texts))
			for _, text := range tt.texts {
				require.NoError(t, acc.Append(text))
			}
			assert.Equal(t, len(tt.texts), acc.Len())

			arr := acc.Finish()
			defer arr.Release()
			assert.Equal(t, len(tt.texts), arr.Len())
			tt.check(t, arr)
		})
	}
}

func TestAccumulator_FailedAppendLeavesNoSlot(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	acc := NewAccumulator(mem, mustColumn(t, "price", types.Decimal128, 12, 2), 0)
	require.NoError(t, acc.Append("1.00"))

	err := acc.Append("12345678901.00")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDecimalRescaleOverflow))
	assert.Equal(t, 1, acc.Len())

	acc.Release()
}

func TestAccumulator_SpentAfterFinish(t *testing.T) {
	acc := NewAccumulator(memory.DefaultAllocator, mustColumn(t, "k", types.Int32, 0, 0), 0)
	require.NoError(t, acc.Append("1"))
	arr := acc.Finish()
	defer arr.Release()

	assert.Error(t, acc.Append("2"))
	assert.Equal(t, 0, acc.Len())
	acc.Release()
}

func TestNewChunk(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	table := schema.TableSpec{
		Name:       "t",
		SourcePath: "t.tbl",
		Columns: []schema.ColumnSpec{
			mustColumn(t, "a", types.Int32, 0, 0),
			mustColumn(t, "b", types.Utf8, 0, 0),
		},
	}
	s := table.ArrowSchema()

	a := NewAccumulator(mem, table.Columns[0], 2)
	b := NewAccumulator(mem, table.Columns[1], 2)
	for _, row := range [][2]string{{"1", "x"}, {"2", "y"}} {
		require.NoError(t, a.Append(row[0]))
		require.NoError(t, b.Append(row[1]))
	}

	chunk, err := NewChunk(3, s, []arrow.Array{a.Finish(), b.Finish()}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), chunk.NumRows())
	assert.Equal(t, 3, chunk.Seq())
	assert.Equal(t, "y", chunk.Record().Column(1).(*array.String).Value(1))
	chunk.Release()

	c := NewAccumulator(mem, table.Columns[0], 1)
	require.NoError(t, c.Append("1"))
	d := NewAccumulator(mem, table.Columns[1], 0)
	_, err = NewChunk(0, s, []arrow.Array{c.Finish(), d.Finish()}, 1)
	assert.Error(t, err)
}

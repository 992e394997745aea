package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

const tpchTOML = `
[tables]

[tables.region]
tblPath = 'tpch_data/region.tbl'
columns = [
  { name = 'r_regionkey', type = 'int32' },
  { name = 'r_name', type = 'string' },
  { name = 'r_comment', type = 'string' },
]

[tables.orders]
tbl_path = 'tpch_data/orders.tbl'
columns = [
  { name = 'o_orderkey', type = 'int64' },
  { name = 'o_totalprice', type = 'decimal128', precision = 15, scale = 2 },
  { name = 'o_orderdate', type = 'date32' },
]

[tables.nation]
path = '/abs/nation.tbl'
columns = [
  { name = 'n_nationkey', type = 'int32' },
  { name = 'n_ratio', type = 'double' },
]
`

func TestParseTOML_OrderAndFields(t *testing.T) {
	tables, err := ParseTOML([]byte(tpchTOML), LoadOptions{DataDir: "/data"})
	require.NoError(t, err)
	require.Len(t, tables, 3)

	assert.Equal(t, "region", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
	assert.Equal(t, "nation", tables[2].Name)

	assert.Equal(t, filepath.Join("/data", "tpch_data/region.tbl"), tables[0].SourcePath)
	assert.Equal(t, filepath.Join("/data", "tpch_data/orders.tbl"), tables[1].SourcePath)
	assert.Equal(t, "/abs/nation.tbl", tables[2].SourcePath)

	price := tables[1].Columns[1]
	assert.Equal(t, types.Decimal128, price.Kind)
	assert.Equal(t, int32(15), price.Precision)
	assert.Equal(t, int32(2), price.Scale)
	assert.Equal(t, types.Date32, tables[1].Columns[2].Kind)
	assert.Equal(t, []string{"n_nationkey", "n_ratio"}, tables[2].ColumnNames())
}

func TestParseTOML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{
			name: "missing tables",
			doc:  "[other]\nx = 1\n",
			code: errors.CodeMissingSection,
		},
		{
			name: "missing path",
			doc:  "[tables.t]\ncolumns = [ { name = 'a', type = 'int32' } ]\n",
			code: errors.CodeMissingField,
		},
		{
			name: "missing columns",
			doc:  "[tables.t]\npath = 't.tbl'\n",
			code: errors.CodeMissingField,
		},
		{
			name: "missing type",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a' } ]\n",
			code: errors.CodeMissingField,
		},
		{
			name: "unknown type",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'varchar' } ]\n",
			code: errors.CodeUnknownType,
		},
		{
			name: "decimal without scale",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'decimal128', precision = 12 } ]\n",
			code: errors.CodeMissingField,
		},
		{
			name: "precision on int",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'int32', precision = 12, scale = 2 } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "precision too wide",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'decimal128', precision = 39, scale = 2 } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "precision wraps int32",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'decimal128', precision = 4294967308, scale = 2 } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "negative scale",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'decimal128', precision = 12, scale = -4294967294 } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "scale above precision",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'decimal128', precision = 4, scale = 5 } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "duplicate column",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = [ { name = 'a', type = 'int32' }, { name = 'a', type = 'int64' } ]\n",
			code: errors.CodeInvalidColumn,
		},
		{
			name: "no columns",
			doc:  "[tables.t]\npath = 't.tbl'\ncolumns = []\n",
			code: errors.CodeMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOML([]byte(tt.doc), LoadOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), err.Error())
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
		})
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
tables:
  supplier:
    path: supplier.tbl
    columns:
      - {name: s_suppkey, type: int64}
      - {name: s_acctbal, type: decimal128, precision: 12, scale: 2}
  part:
    path: part.tbl
    columns:
      - {name: p_partkey, type: int64}
`
	tables, err := ParseYAML([]byte(doc), LoadOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "supplier", tables[0].Name)
	assert.Equal(t, "part", tables[1].Name)
	assert.Equal(t, int32(12), tables[0].Columns[1].Precision)

	list := `
tables:
  - name: b
    path: b.tbl
    columns: [{name: x, type: string}]
  - name: a
    path: a.tbl
    columns: [{name: y, type: date32}]
`
	tables, err = ParseYAML([]byte(list), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "b", tables[0].Name)
	assert.Equal(t, "a", tables[1].Name)

	_, err = ParseYAML([]byte("other: 1\n"), LoadOptions{})
	assert.True(t, errors.IsCode(err, errors.CodeMissingSection))
}

func TestLoadTables_EnvSubstitution(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORMATBENCH_TEST_DIR", "/srv/tpch")

	path := filepath.Join(dir, "catalog.toml")
	doc := "[tables.region]\npath = '${FORMATBENCH_TEST_DIR}/region.tbl'\ncolumns = [ { name = 'r', type = 'int32' } ]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tables, err := LoadTables(path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "/srv/tpch/region.tbl", tables[0].SourcePath)

	_, err = LoadTables(filepath.Join(dir, "absent.toml"), LoadOptions{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestTableSpec_ArrowSchemaAndDDL(t *testing.T) {
	tables, err := ParseTOML([]byte(tpchTOML), LoadOptions{})
	require.NoError(t, err)
	orders := tables[1]

	s := orders.ArrowSchema()
	require.Equal(t, 3, s.NumFields())
	assert.True(t, arrow.TypeEqual(&arrow.Decimal128Type{Precision: 15, Scale: 2}, s.Field(1).Type))
	assert.True(t, s.Field(0).Nullable)

	assert.Equal(t,
		"CREATE TABLE orders (o_orderkey BIGINT, o_totalprice DECIMAL(15,2), o_orderdate DATE);",
		orders.CreateTableSQL())
	assert.Equal(t, filepath.Join("out", "orders.parquet"), orders.OutputPath("out", "parquet"))
}

func TestColumnSpec_Convert(t *testing.T) {
	c, err := NewColumn("l_shipdate", types.Date32, 0, 0)
	require.NoError(t, err)

	_, err = c.Convert("1998-02-30")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidDate))
	col, ok := errors.DetailOf(err, "column")
	require.True(t, ok)
	assert.Equal(t, "l_shipdate", col)
}

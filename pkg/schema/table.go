// Package schema is the table catalog: column and table specs parsed from a
// TOML or YAML configuration, plus their arrow and SQL projections.
package schema

import (
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

// ColumnSpec describes one column. Precision and Scale are set only for
// Decimal128 columns.
type ColumnSpec struct {
	Name      string
	Kind      types.Kind
	Precision int32
	Scale     int32
}

// NewColumn builds a validated column spec
func NewColumn(name string, kind types.Kind, precision, scale int32) (ColumnSpec, error) {
	c := ColumnSpec{Name: name, Kind: kind, Precision: precision, Scale: scale}
	return c, c.Validate()
}

// Validate checks the precision and scale invariants of the column
func (c ColumnSpec) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeInvalidColumn, format, args...).
			WithDetail("column", c.Name)
	}

	if c.Name == "" {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField, "column name is required")
	}
	if c.Kind == types.Invalid {
		return invalid("column %s has no type", c.Name)
	}
	if !c.Kind.IsDecimal() {
		if c.Precision != 0 || c.Scale != 0 {
			return invalid("column %s: precision and scale are only valid for decimal128", c.Name)
		}
		return nil
	}
	if c.Precision < 1 || c.Precision > types.MaxDecimalPrecision {
		return invalid("column %s: precision %d outside 1..%d", c.Name, c.Precision, types.MaxDecimalPrecision)
	}
	if c.Scale < 0 || c.Scale > c.Precision {
		return invalid("column %s: scale %d outside 0..%d", c.Name, c.Scale, c.Precision)
	}
	return nil
}

// Convert converts one raw field under this column's rules
func (c ColumnSpec) Convert(text string) (types.Value, error) {
	v, err := types.Convert(c.Kind, c.Precision, c.Scale, text)
	if err != nil {
		return v, errors.Wrap(err, errors.ErrorTypeConversion, "column "+c.Name).
			WithDetail("column", c.Name)
	}
	return v, nil
}

// ArrowField returns the arrow field of the column. Fields are nullable
// because empty and \N fields load as null.
func (c ColumnSpec) ArrowField() arrow.Field {
	dt, err := types.ArrowType(c.Kind, c.Precision, c.Scale)
	if err != nil {
		// Validate rejects Invalid kinds before a spec is ever used
		panic(err)
	}
	return arrow.Field{Name: c.Name, Type: dt, Nullable: true}
}

// SQLType returns the table store column type
func (c ColumnSpec) SQLType() string {
	return types.SQLType(c.Kind, c.Precision, c.Scale)
}

// TableSpec describes one source table
type TableSpec struct {
	Name       string
	SourcePath string
	Columns    []ColumnSpec
}

// Validate checks the table invariants: a name, a source path, at least
// one column, valid and uniquely named columns.
func (t TableSpec) Validate() error {
	if t.Name == "" {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField, "table name is required")
	}
	if t.SourcePath == "" {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField,
			"table %s: path is required", t.Name).WithDetail("table", t.Name)
	}
	if len(t.Columns) == 0 {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField,
			"table %s: at least one column is required", t.Name).WithDetail("table", t.Name)
	}

	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if err := c.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "table "+t.Name).WithDetail("table", t.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return errors.Newf(errors.ErrorTypeConfig, errors.CodeInvalidColumn,
				"table %s: duplicate column %s", t.Name, c.Name).
				WithDetail("table", t.Name).
				WithDetail("column", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// ArrowSchema returns the output schema shared by every encoding
func (t TableSpec) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = c.ArrowField()
	}
	return arrow.NewSchema(fields, nil)
}

// ColumnNames returns the column names in declared order
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateTableSQL returns the DDL that creates this table in a table store
func (t TableSpec) CreateTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(t.Name)
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.SQLType())
	}
	b.WriteString(");")
	return b.String()
}

// OutputPath returns <dir>/<table>.<ext>
func (t TableSpec) OutputPath(dir, ext string) string {
	return filepath.Join(dir, t.Name+"."+ext)
}

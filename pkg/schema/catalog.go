package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/formatbench/pkg/errors"
	"github.com/ajitpratap0/formatbench/pkg/types"
)

// rawColumn is a column entry as written in the catalog. Pointers record
// whether optional fields were present.
type rawColumn struct {
	Name      string `toml:"name" yaml:"name"`
	Type      string `toml:"type" yaml:"type"`
	Precision *int   `toml:"precision" yaml:"precision"`
	Scale     *int   `toml:"scale" yaml:"scale"`
}

// rawTable accepts the three path spellings seen in catalogs: path,
// tblPath and tbl_path.
type rawTable struct {
	Name       string      `toml:"name" yaml:"name"`
	Path       string      `toml:"path" yaml:"path"`
	TblPath    string      `toml:"tblPath" yaml:"tblPath"`
	TblPathAlt string      `toml:"tbl_path" yaml:"tbl_path"`
	Columns    []rawColumn `toml:"columns" yaml:"columns"`
	hasColumns bool
}

func (r rawTable) path() string {
	switch {
	case r.Path != "":
		return r.Path
	case r.TblPath != "":
		return r.TblPath
	default:
		return r.TblPathAlt
	}
}

// LoadOptions tune catalog loading
type LoadOptions struct {
	// DataDir resolves relative source paths when set
	DataDir string
}

// LoadTables reads a catalog file. The format is chosen by extension:
// .yaml and .yml are YAML, anything else is TOML. ${VAR} references are
// replaced with environment values before parsing.
func LoadTables(path string, opts LoadOptions) ([]TableSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: catalog path is operator supplied
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read catalog").
			WithDetail("path", path)
	}
	data = []byte(substituteEnvVars(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, opts)
	default:
		return ParseTOML(data, opts)
	}
}

// ParseTOML parses a catalog of the form
//
//	[tables.lineitem]
//	tblPath = 'tpch_data/lineitem.tbl'
//	columns = [ { name = 'l_orderkey', type = 'int64' }, ... ]
//
// Tables are returned in document order.
func ParseTOML(data []byte, opts LoadOptions) ([]TableSpec, error) {
	var doc struct {
		Tables map[string]rawTable `toml:"tables"`
	}
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse TOML catalog")
	}
	if !md.IsDefined("tables") {
		return nil, errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingSection, "missing [tables] section")
	}

	var order []string
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "tables" {
			order = append(order, key[1])
		}
	}

	raws := make([]namedRaw, 0, len(order))
	for _, name := range order {
		raw, ok := doc.Tables[name]
		if !ok {
			continue
		}
		raw.hasColumns = md.IsDefined("tables", name, "columns")
		raws = append(raws, namedRaw{name: name, raw: raw})
	}
	return buildTables(raws, opts)
}

// ParseYAML parses a catalog whose tables section is either a mapping
// keyed by table name or a sequence of entries carrying a name field.
// Tables are returned in document order.
func ParseYAML(data []byte, opts LoadOptions) ([]TableSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML catalog")
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingSection, "missing tables section")
	}

	var tables *yaml.Node
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "tables" {
			tables = doc.Content[i+1]
			break
		}
	}
	if tables == nil || (tables.Kind != yaml.MappingNode && tables.Kind != yaml.SequenceNode) {
		return nil, errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingSection, "missing tables section")
	}

	var raws []namedRaw
	decode := func(name string, node *yaml.Node) error {
		var raw rawTable
		if err := node.Decode(&raw); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("table %s", name))
		}
		if name == "" {
			name = raw.Name
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "columns" {
				raw.hasColumns = true
			}
		}
		raws = append(raws, namedRaw{name: name, raw: raw})
		return nil
	}

	if tables.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(tables.Content); i += 2 {
			if err := decode(tables.Content[i].Value, tables.Content[i+1]); err != nil {
				return nil, err
			}
		}
	} else {
		for _, node := range tables.Content {
			if err := decode("", node); err != nil {
				return nil, err
			}
		}
	}
	return buildTables(raws, opts)
}

type namedRaw struct {
	name string
	raw  rawTable
}

func buildTables(raws []namedRaw, opts LoadOptions) ([]TableSpec, error) {
	tables := make([]TableSpec, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for _, nr := range raws {
		t, err := buildTable(nr.name, nr.raw, opts)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t.Name]; dup {
			return nil, errors.Newf(errors.ErrorTypeConfig, errors.CodeInvalidColumn,
				"duplicate table %s", t.Name).WithDetail("table", t.Name)
		}
		seen[t.Name] = struct{}{}
		tables = append(tables, t)
	}
	return tables, nil
}

func buildTable(name string, raw rawTable, opts LoadOptions) (TableSpec, error) {
	missing := func(field string) error {
		return errors.Newf(errors.ErrorTypeConfig, errors.CodeMissingField,
			"table %s: missing %s", name, field).
			WithDetail("table", name).
			WithDetail("field", field)
	}

	if name == "" {
		return TableSpec{}, missing("name")
	}
	path := raw.path()
	if path == "" {
		return TableSpec{}, missing("path")
	}
	if !raw.hasColumns {
		return TableSpec{}, missing("columns")
	}
	if opts.DataDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(opts.DataDir, path)
	}

	t := TableSpec{Name: name, SourcePath: path, Columns: make([]ColumnSpec, 0, len(raw.Columns))}
	for i, rc := range raw.Columns {
		if rc.Name == "" {
			return TableSpec{}, missing(fmt.Sprintf("columns[%d].name", i))
		}
		if rc.Type == "" {
			return TableSpec{}, missing(fmt.Sprintf("column %s type", rc.Name))
		}
		kind, err := types.KindFromName(rc.Type)
		if err != nil {
			return TableSpec{}, errors.Wrap(err, errors.ErrorTypeConfig,
				fmt.Sprintf("table %s column %s", name, rc.Name)).
				WithDetail("table", name).
				WithDetail("column", rc.Name)
		}

		var precision, scale int32
		if kind.IsDecimal() {
			if rc.Precision == nil {
				return TableSpec{}, missing(fmt.Sprintf("column %s precision", rc.Name))
			}
			if rc.Scale == nil {
				return TableSpec{}, missing(fmt.Sprintf("column %s scale", rc.Name))
			}
			for _, v := range []int{*rc.Precision, *rc.Scale} {
				if v < 0 || v > types.MaxDecimalPrecision {
					return TableSpec{}, errors.Newf(errors.ErrorTypeConfig, errors.CodeInvalidColumn,
						"table %s column %s: precision and scale must be in 0..%d, got (%d,%d)",
						name, rc.Name, types.MaxDecimalPrecision, *rc.Precision, *rc.Scale).
						WithDetail("table", name).
						WithDetail("column", rc.Name)
				}
			}
			precision, scale = int32(*rc.Precision), int32(*rc.Scale)
		} else if rc.Precision != nil || rc.Scale != nil {
			return TableSpec{}, errors.Newf(errors.ErrorTypeConfig, errors.CodeInvalidColumn,
				"table %s column %s: precision and scale are only valid for decimal128", name, rc.Name).
				WithDetail("table", name).
				WithDetail("column", rc.Name)
		}

		t.Columns = append(t.Columns, ColumnSpec{Name: rc.Name, Kind: kind, Precision: precision, Scale: scale})
	}

	if err := t.Validate(); err != nil {
		return TableSpec{}, err
	}
	return t, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}

// Package types is the closed type system shared by the catalog and the
// column accumulators. A Kind is one of six column kinds; Convert turns the
// text of one source field into a Value of that kind.
package types

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// Kind enumerates the supported column kinds
type Kind uint8

const (
	// Invalid is the zero Kind and is never produced by KindFromName
	Invalid Kind = iota
	// Int32 is a signed 32-bit integer
	Int32
	// Int64 is a signed 64-bit integer
	Int64
	// Float64 is an IEEE-754 double
	Float64
	// Utf8 is a variable length string
	Utf8
	// Date32 is a day count since 1970-01-01
	Date32
	// Decimal128 is a fixed precision and scale decimal
	Decimal128
)

// MaxDecimalPrecision is the widest precision a Decimal128 column accepts
const MaxDecimalPrecision = 38

var kindNames = map[Kind]string{
	Int32:      "int32",
	Int64:      "int64",
	Float64:    "double",
	Utf8:       "string",
	Date32:     "date32",
	Decimal128: "decimal128",
}

// Kinds returns every valid kind in declaration order
func Kinds() []Kind {
	return []Kind{Int32, Int64, Float64, Utf8, Date32, Decimal128}
}

// String returns the catalog name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

// IsDecimal reports whether the kind carries precision and scale
func (k Kind) IsDecimal() bool {
	return k == Decimal128
}

// KindFromName resolves a catalog type name
func KindFromName(name string) (Kind, error) {
	for _, k := range Kinds() {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return Invalid, errors.Newf(errors.ErrorTypeConfig, errors.CodeUnknownType,
		"unknown column type %q", name).WithDetail("type", name)
}

// ArrowType maps a kind to its arrow data type. Precision and scale are
// only consulted for Decimal128.
func ArrowType(k Kind, precision, scale int32) (arrow.DataType, error) {
	switch k {
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Utf8:
		return arrow.BinaryTypes.String, nil
	case Date32:
		return arrow.FixedWidthTypes.Date32, nil
	case Decimal128:
		return &arrow.Decimal128Type{Precision: precision, Scale: scale}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, errors.CodeUnknownType,
			"no arrow type for kind %d", uint8(k))
	}
}

// SQLType returns the table store column type used in CREATE TABLE
func SQLType(k Kind, precision, scale int32) string {
	switch k {
	case Int32:
		return "INTEGER"
	case Int64:
		return "BIGINT"
	case Float64:
		return "DOUBLE"
	case Date32:
		return "DATE"
	case Decimal128:
		return "DECIMAL(" + strconv.Itoa(int(precision)) + "," + strconv.Itoa(int(scale)) + ")"
	default:
		return "VARCHAR"
	}
}

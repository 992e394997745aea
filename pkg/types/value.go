package types

import (
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
)

// NullSentinel is the literal field text that denotes a null besides the
// empty field
const NullSentinel = `\N`

// Value is one converted field. Exactly one payload field is meaningful,
// selected by Kind, unless Null is set.
type Value struct {
	Kind Kind
	Null bool

	// Int holds Int32, Int64 and Date32 payloads
	Int int64
	// Float holds Float64 payloads
	Float float64
	// Str holds Utf8 payloads
	Str string
	// Dec holds Decimal128 payloads already scaled to the column scale
	Dec decimal128.Num
}

// NullValue returns the null value of kind k
func NullValue(k Kind) Value {
	return Value{Kind: k, Null: true}
}

// Int32 returns the payload of an Int32 value
func (v Value) Int32() int32 { return int32(v.Int) }

// Date32 returns the payload of a Date32 value
func (v Value) Date32() arrow.Date32 { return arrow.Date32(v.Int) }

// Format renders the value as text. Decimals need their column scale.
func (v Value) Format(scale int32) string {
	if v.Null {
		return NullSentinel
	}
	switch v.Kind {
	case Int32, Int64:
		return strconv.FormatInt(v.Int, 10)
	case Float64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case Utf8:
		return v.Str
	case Date32:
		return FormatDate(int32(v.Int))
	case Decimal128:
		return v.Dec.ToString(scale)
	default:
		return ""
	}
}

package types

import (
	"strconv"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// IsNullText reports whether a raw field denotes null
func IsNullText(text string) bool {
	return text == "" || text == NullSentinel
}

// Convert turns the raw text of one field into a Value of kind k.
// Precision and scale are only consulted for Decimal128. A failed
// conversion returns a zero Value and a conversion error; it never falls
// back to null.
func Convert(k Kind, precision, scale int32, text string) (Value, error) {
	if IsNullText(text) {
		return NullValue(k), nil
	}

	switch k {
	case Int32, Int64:
		bits := 64
		if k == Int32 {
			bits = 32
		}
		n, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return Value{}, malformed(k, text, err)
		}
		return Value{Kind: k, Int: n}, nil

	case Float64:
		if !isDecimalText(text) {
			return Value{}, malformed(k, text, strconv.ErrSyntax)
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, malformed(k, text, err)
		}
		return Value{Kind: k, Float: f}, nil

	case Utf8:
		return Value{Kind: k, Str: text}, nil

	case Date32:
		days, err := ParseDate(text)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: k, Int: int64(days)}, nil

	case Decimal128:
		n, err := ParseDecimal(text, precision, scale)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: k, Dec: n}, nil

	default:
		return Value{}, errors.Newf(errors.ErrorTypeConfig, errors.CodeUnknownType,
			"cannot convert to kind %d", uint8(k))
	}
}

// isDecimalText limits floats to decimal and exponential notation.
// strconv also accepts NaN, Inf, hex floats and underscores.
func isDecimalText(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c == '.', c == '+', c == '-':
		case c == 'e' || c == 'E':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func malformed(k Kind, text string, cause error) error {
	e := errors.Wrap(cause, errors.ErrorTypeConversion, "malformed "+k.String()+" "+strconv.Quote(text))
	return e.WithCode(errors.CodeMalformedNumber).WithDetail("text", text)
}

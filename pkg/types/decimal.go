package types

import (
	"math/big"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// ParseDecimal parses text at its natural scale and rescales it to the
// column's scale. The returned number is already scaled: 42.10 under
// scale 2 is the integer 4210.
func ParseDecimal(text string, precision, scale int32) (decimal128.Num, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal128.Num{}, errors.Newf(errors.ErrorTypeConversion, errors.CodeMalformedNumber,
			"malformed decimal %q", text).WithDetail("text", text)
	}
	return Rescale(d.Coefficient(), -d.Exponent(), scale, precision)
}

// Rescale moves an unscaled integer from scale `from` to scale `to` and
// checks the result fits in precision digits. Rescaling to the same scale
// returns the value unchanged.
func Rescale(unscaled *big.Int, from, to, precision int32) (decimal128.Num, error) {
	overflow := func(reason string) error {
		return errors.Newf(errors.ErrorTypeConversion, errors.CodeDecimalRescaleOverflow,
			"cannot rescale %s (scale %d) to decimal128(%d,%d): %s",
			unscaled.String(), from, precision, to, reason).
			WithDetail("precision", precision).
			WithDetail("scale", to)
	}

	if unscaled.BitLen() > 127 {
		return decimal128.Num{}, overflow("value exceeds 128 bits")
	}
	delta := to - from
	if delta > MaxDecimalPrecision || delta < -MaxDecimalPrecision {
		return decimal128.Num{}, overflow("scale difference too large")
	}

	out, err := decimal128.FromBigInt(unscaled).Rescale(from, to)
	if err != nil {
		return decimal128.Num{}, overflow(err.Error())
	}
	if !out.FitsInPrecision(precision) {
		return decimal128.Num{}, overflow("integer part too wide")
	}
	return out, nil
}

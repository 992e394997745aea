package types

import (
	"math/big"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

func TestKindFromName(t *testing.T) {
	for _, k := range Kinds() {
		got, err := KindFromName(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := KindFromName("varchar")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownType))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestConvert_NullForEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		for _, text := range []string{"", `\N`} {
			v, err := Convert(k, 12, 2, text)
			require.NoError(t, err, "kind %s text %q", k, text)
			assert.True(t, v.Null)
			assert.Equal(t, k, v.Kind)
		}
	}
}

func TestConvert_Integers(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		text    string
		want    int64
		wantErr bool
	}{
		{name: "int32", kind: Int32, text: "42", want: 42},
		{name: "int32 negative", kind: Int32, text: "-2147483648", want: -2147483648},
		{name: "int32 overflow", kind: Int32, text: "2147483648", wantErr: true},
		{name: "int64 wide", kind: Int64, text: "6000000000", want: 6000000000},
		{name: "int64 overflow", kind: Int64, text: "9223372036854775808", wantErr: true},
		{name: "not a number", kind: Int64, text: "12a", wantErr: true},
		{name: "float text", kind: Int32, text: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Convert(tt.kind, 0, 0, tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.CodeMalformedNumber))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Int)
			assert.False(t, v.Null)
		})
	}
}

func TestConvert_Float64(t *testing.T) {
	v, err := Convert(Float64, 0, 0, "901.00")
	require.NoError(t, err)
	assert.Equal(t, 901.0, v.Float)

	v, err = Convert(Float64, 0, 0, "1.5e3")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, v.Float)

	_, err = Convert(Float64, 0, 0, "one")
	assert.True(t, errors.IsCode(err, errors.CodeMalformedNumber))

	v, err = Convert(Float64, 0, 0, "-2.5E-1")
	require.NoError(t, err)
	assert.Equal(t, -0.25, v.Float)

	for _, text := range []string{"0x1p-2", "NaN", "nan", "Inf", "-Infinity", "1_000", "e5"} {
		_, err := Convert(Float64, 0, 0, text)
		require.Error(t, err, text)
		assert.True(t, errors.IsCode(err, errors.CodeMalformedNumber), text)
	}
}

func TestConvert_StringPassthrough(t *testing.T) {
	v, err := Convert(Utf8, 0, 0, "furiously special foxes, \"quoted\"")
	require.NoError(t, err)
	assert.Equal(t, "furiously special foxes, \"quoted\"", v.Str)
}

func TestParseDate(t *testing.T) {
	tests := []string{"1970-01-01", "1992-01-02", "1998-12-01", "2000-02-29", "1969-12-31", "1678-01-01", "2261-12-31"}
	for _, text := range tests {
		want, err := time.Parse("2006-01-02", text)
		require.NoError(t, err)

		days, err := ParseDate(text)
		require.NoError(t, err, text)
		assert.Equal(t, int32(want.Unix()/86400), days, text)
		assert.Equal(t, arrow.Date32FromTime(want), arrow.Date32(days), text)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, text := range []string{"1998-1-01", "19980101", "1998/01/01", "1998-13-01", "1999-02-29", "1998-04-31", "abcd-ef-gh", " 1998-01-01", "0000-02-29", "0000-03-01"} {
		_, err := Convert(Date32, 0, 0, text)
		require.Error(t, err, text)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidDate), text)
	}
}

func TestDateRoundTrip(t *testing.T) {
	start := DateToDays(1678, 1, 1)
	end := DateToDays(2261, 12, 31)
	require.Less(t, start, end)

	for days := start; days <= end; days++ {
		y, m, d := DaysToDate(days)
		if got := DateToDays(y, m, d); got != days {
			t.Fatalf("DateToDays(DaysToDate(%d)) = %d (%04d-%02d-%02d)", days, got, y, m, d)
		}
	}
	assert.Equal(t, "1998-12-01", FormatDate(10561))
}

func TestConvert_Decimal(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int64
	}{
		{name: "exact scale", text: "42.10", want: 4210},
		{name: "short scale", text: "42.1", want: 4210},
		{name: "integer", text: "42", want: 4200},
		{name: "negative", text: "-0.5", want: -50},
		{name: "trailing zeros", text: "1.500", want: 150},
		{name: "exponent", text: "1e3", want: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Convert(Decimal128, 12, 2, tt.text)
			require.NoError(t, err)
			assert.Equal(t, decimal128.FromI64(tt.want), v.Dec)
		})
	}
}

func TestConvert_DecimalPrecisionAndScaleDiffer(t *testing.T) {
	tests := []struct {
		precision, scale int32
		text             string
		want             string
	}{
		{15, 2, "42.10", "42.10"},
		{12, 2, "0.01", "0.01"},
		{5, 0, "12345", "12345"},
		{38, 10, "-1.5", "-1.5000000000"},
		{4, 4, "0.5", "0.5000"},
	}

	for _, tt := range tests {
		v, err := Convert(Decimal128, tt.precision, tt.scale, tt.text)
		require.NoError(t, err, "decimal128(%d,%d) %q", tt.precision, tt.scale, tt.text)
		assert.Equal(t, tt.want, v.Dec.ToString(tt.scale))
	}

	_, err := Convert(Decimal128, 5, 0, "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal128(5,0)")
}

func TestConvert_DecimalOverflow(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "integer part too wide", text: "123456789012.00"},
		{name: "precision exceeded after rescale", text: "99999999999"},
		{name: "digits lost", text: "1.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Convert(Decimal128, 12, 2, tt.text)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeDecimalRescaleOverflow), err.Error())
			assert.Equal(t, Value{}, v)
		})
	}

	_, err := Convert(Decimal128, 12, 2, "12.3.4")
	assert.True(t, errors.IsCode(err, errors.CodeMalformedNumber))
}

func TestRescale_Idempotent(t *testing.T) {
	first, err := Rescale(big.NewInt(4210), 2, 2, 12)
	require.NoError(t, err)

	second, err := Rescale(first.BigInt(), 2, 2, 12)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, decimal128.FromI64(4210), second)
}

func TestValueFormat(t *testing.T) {
	v, err := Convert(Decimal128, 12, 2, "42.1")
	require.NoError(t, err)
	assert.Equal(t, "42.10", v.Format(2))

	v, err = Convert(Date32, 0, 0, "1995-03-15")
	require.NoError(t, err)
	assert.Equal(t, "1995-03-15", v.Format(0))

	assert.Equal(t, `\N`, NullValue(Int32).Format(0))
}

func TestArrowAndSQLTypes(t *testing.T) {
	dt, err := ArrowType(Decimal128, 15, 2)
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(&arrow.Decimal128Type{Precision: 15, Scale: 2}, dt))

	dt, err = ArrowType(Date32, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, arrow.DATE32, dt.ID())

	_, err = ArrowType(Invalid, 0, 0)
	assert.Error(t, err)

	assert.Equal(t, "DECIMAL(15,2)", SQLType(Decimal128, 15, 2))
	assert.Equal(t, "BIGINT", SQLType(Int64, 0, 0))
	assert.Equal(t, "VARCHAR", SQLType(Utf8, 0, 0))
}

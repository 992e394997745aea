package types

import (
	"fmt"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// epochOffset is the day number of 1970-01-01 under DateToDays' count,
// which starts at 0000-03-01 plus the month offset of March.
const epochOffset = 719561

// ParseDate converts strict YYYY-MM-DD text to days since 1970-01-01.
// Years start at 0001.
func ParseDate(text string) (int32, error) {
	y, m, d, ok := splitDate(text)
	if !ok || y < 1 || m < 1 || m > 12 || d < 1 || d > daysInMonth(y, m) {
		return 0, errors.Newf(errors.ErrorTypeConversion, errors.CodeInvalidDate,
			"invalid date %q, expected YYYY-MM-DD", text).WithDetail("text", text)
	}
	return DateToDays(y, m, d), nil
}

// DateToDays counts days since 1970-01-01 with integer arithmetic only.
// January and February are treated as months 13 and 14 of the previous year.
func DateToDays(y, m, d int) int32 {
	if m < 3 {
		m += 12
		y--
	}
	days := 365*y + y/4 - y/100 + y/400 + (153*m+8)/5 + d - 1
	return int32(days - epochOffset)
}

// DaysToDate is the inverse of DateToDays
func DaysToDate(days int32) (y, m, d int) {
	z := int64(days) + 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		m = int(mp + 3)
	} else {
		m = int(mp - 9)
	}
	y = int(yoe + era*400)
	if m <= 2 {
		y++
	}
	return y, m, d
}

// FormatDate renders days since the epoch as YYYY-MM-DD
func FormatDate(days int32) string {
	y, m, d := DaysToDate(days)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func splitDate(s string) (y, m, d int, ok bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return 0, 0, 0, false
	}
	if y, ok = digits(s[0:4]); !ok {
		return 0, 0, 0, false
	}
	if m, ok = digits(s[5:7]); !ok {
		return 0, 0, 0, false
	}
	if d, ok = digits(s[8:10]); !ok {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func daysInMonth(y, m int) int {
	switch m {
	case 2:
		if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a raw amount into a non-negative decimal.
//
// Strings accept both dot (12.34) and comma (12,34) decimal separators, with
// the other character treated as a thousands separator when both appear
// ("1.234,56" and "1,234.56" are the same amount). A leading currency symbol
// is ignored. Anything that cannot be read as a number becomes zero; negative
// values are taken by magnitude since direction is carried by Kind.
//
// Examples:
//
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("R$ 1.000") -> 1000
//	ParseAmount(nil)        -> 0
//	ParseAmount("abc")      -> 0
func ParseAmount(v any) decimal.Decimal {
	d, _ := parseAmount(v)
	return d
}

// ParseAmountStrict is ParseAmount for write boundaries: unreadable input is
// an error instead of zero.
func ParseAmountStrict(v any) (decimal.Decimal, error) {
	d, ok := parseAmount(v)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return d, nil
}

// parseAmount reports whether v was a readable number; a false result always
// comes with a zero amount.
func parseAmount(v any) (decimal.Decimal, bool) {
	var (
		d  decimal.Decimal
		ok = true
	)
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		d = *x
	case string:
		d, ok = parseAmountString(x)
	case json.Number:
		d, ok = parseAmountString(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat(x)
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		d = decimal.NewFromFloat32(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int32:
		d = decimal.NewFromInt32(x)
	case int64:
		d = decimal.NewFromInt(x)
	case uint:
		d = decimal.NewFromUint64(uint64(x))
	case uint32:
		d = decimal.NewFromUint64(uint64(x))
	case uint64:
		d = decimal.NewFromUint64(x)
	default:
		return decimal.Zero, false
	}
	if !ok {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "R$€£  ")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		// 1.234.567
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

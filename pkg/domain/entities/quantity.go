package entities

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// CoerceQuantity converts a loosely typed numeric value into a non-negative decimal.
// Absent, unparseable and negative values become zero.
func CoerceQuantity(v interface{}) decimal.Decimal {
	d, _ := ParseQuantity(v)
	return d
}

// ParseQuantity is CoerceQuantity that also reports whether v held a number.
// Negative numbers parse and are clamped to zero.
func ParseQuantity(v interface{}) (decimal.Decimal, bool) {
	var d decimal.Decimal

	switch val := v.(type) {
	case decimal.Decimal:
		d = val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		d = *val
	case float64:
		d = decimal.NewFromFloat(val)
	case float32:
		d = decimal.NewFromFloat32(val)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int32:
		d = decimal.NewFromInt32(val)
	case int64:
		d = decimal.NewFromInt(val)
	case uint:
		d = decimal.NewFromUint64(uint64(val))
	case uint64:
		d = decimal.NewFromUint64(val)
	case json.Number:
		return ParseQuantity(val.String())
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	default:
		return decimal.Zero, false
	}

	if d.IsNegative() {
		return decimal.Zero, true
	}
	return d, true
}

// MinQuantity returns the smaller of two quantities
func MinQuantity(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// SumQuantities adds a list of quantities
func SumQuantities(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

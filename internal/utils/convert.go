package utils

import (
	"strconv"
	"strings"
)

// ToFloat coerces an arbitrary decoded value to a float64 for feature
// vector construction. Non-numeric or missing values become 0.
func ToFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		return BoolToFloat(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// BoolToFloat maps a boolean feature to 0 or 1.
func BoolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ASNNumber extracts the numeric part of an ASN string such as
// "AS15169". Missing or malformed input yields 0.
func ASNNumber(asn string) int {
	s := strings.TrimSpace(asn)
	s = strings.TrimPrefix(strings.ToUpper(s), "AS")
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

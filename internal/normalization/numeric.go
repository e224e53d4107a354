package normalization

import (
	"math"
	"strconv"
	"strings"
)

// Normalize coerces a stored market value into a float64. Numeric input is
// returned as a float unchanged; textual input is stripped of every character
// that is not a digit, period or minus sign, then parsed. Unparseable,
// missing or nil input yields 0.0. Total function: never panics.
func Normalize(value any) float64 {
	f, _ := NormalizeOK(value)
	return f
}

// NormalizeOK is Normalize with a flag reporting whether the value actually
// parsed. Callers that must skip broken records instead of zero-filling them
// check the flag; a literal "0" parses, an empty field does not.
func NormalizeOK(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		return parseCleaned(v)
	case []byte:
		return parseCleaned(string(v))
	default:
		return 0, false
	}
}

// Round2 rounds to 2 decimal places, half away from zero. Applied only at
// output boundaries; ranking and summation keep full precision.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func parseCleaned(s string) (float64, bool) {
	cleaned := cleanNumeric(s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cleanNumeric drops every character that is not a digit, period or minus
// sign: "$1,234.56" becomes "1234.56".
func cleanNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DisplayText coerces a decoded value to the text a browser shows when the
// value is interpolated into a template string.
func DisplayText(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return formatNumber(f)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			if e != nil {
				parts[i] = DisplayText(e)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any, map[any]any, Data:
		return "[object Object]"
	case ID:
		return string(val)
	}
	return fmt.Sprint(v)
}

// formatNumber renders f in the shortest round-trip form with
// exponents only outside [1e-6, 1e21)
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

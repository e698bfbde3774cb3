package merge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coercions fail closed: ok is false whenever the value cannot be
// represented exactly enough in the target type.

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return toFloat(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return toFloat(f)
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return toInt64(n.String())
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	case float32:
		return toInt64(float64(n))
	case float64:
		// JSON numbers decode as float64; accept them when integral.
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, so compare against 2^63 directly.
		if n >= 1<<63 || n < -(1<<63) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	i, ok := toInt64(v)
	if !ok || i > math.MaxInt32 || i < math.MinInt32 {
		return 0, false
	}
	return int(i), true
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	default:
		return false, false
	}
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case fmt.Stringer:
		return toString(s.String())
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool, int, int64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

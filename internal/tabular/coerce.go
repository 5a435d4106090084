package tabular

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when a timestamp arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case *big.Int:
		if n == nil || !n.IsInt64() {
			return 0, false
		}
		return n.Int64(), true
	case json.Number:
		return parseIntText(n.String())
	case []byte:
		return parseIntText(string(n))
	case string:
		return parseIntText(n)
	}
	return 0, false
}

// floatToInt truncates toward zero. float64(math.MaxInt64) rounds up to
// 2^63, so the upper bound is exclusive.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseIntText(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt(f)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return finite(float64(n))
	case float64:
		return finite(n)
	case *big.Int:
		if n == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return finite(f)
	case json.Number:
		return parseFloatText(n.String())
	case []byte:
		return parseFloatText(string(n))
	case string:
		return parseFloatText(n)
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloatText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case json.Number:
		return s.String(), true
	case time.Time:
		return s.Format(time.RFC3339Nano), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), true
	case bool:
		return strconv.FormatBool(s), true
	case fmt.Stringer:
		return s.String(), true
	}
	if i, ok := toInt(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	return fmt.Sprint(v), true
}

// toBool reports true only for the literal true or text equal to "true"
// in any case. Every other present value is false.
func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	s, _ := toString(v)
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// toBoolStrict accepts only recognizable true/false text. Used for schema
// defaults where a typo should be caught rather than read as false.
func toBoolStrict(v any) (bool, bool) {
	s, _ := toString(v)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return epochToTime(f)
		}
		return parseTimeText(t.String())
	}
	if f, ok := toFloat(v); ok {
		if _, isBool := v.(bool); isBool {
			return time.Time{}, false
		}
		return epochToTime(f)
	}
	return time.Time{}, false
}

func parseTimeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(f)
	}
	return time.Time{}, false
}

func epochToTime(f float64) (time.Time, bool) {
	if _, ok := finite(f); !ok {
		return time.Time{}, false
	}
	if math.Abs(f) >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

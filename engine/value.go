package engine

import (
	"strconv"
)

// Float decodes a numeric property value.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Int decodes an integral property value.
func Int(v any) (int, bool) {
	f, ok := Float(v)
	return int(f), ok
}

// Bool decodes a flag property value.
func Bool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// String decodes a property value into its textual form.
// Numbers are rendered without a fractional part when they are integral.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	}

	if f, ok := Float(v); ok {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

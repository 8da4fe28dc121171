package docstore

import (
	"cmp"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// TimeLayout is the fixed-width UTC layout used when a backend has to store times as text.
// Fixed width keeps lexical and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// String returns data[key] as a string, or "" when absent or not a string.
func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// Bool returns data[key] when it is a boolean, false otherwise.
func Bool(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

// Float returns data[key] as a float64 regardless of the numeric type the backend produced.
func Float(data map[string]any, key string) float64 {
	f, _ := toFloat(data[key])
	return f
}

// Map returns a nested object, or nil.
func Map(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}

// Strings returns a list of strings, skipping non-string elements.
func Strings(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Time decodes a stored timestamp. It accepts time.Time, RFC 3339 strings and the
// exported Firestore shape {"_seconds": n, "_nanoseconds": n}. Unknown shapes yield
// the zero time.
func Time(data map[string]any, key string) time.Time {
	return toTime(data[key])
}

// OptionalTime is Time returning nil for a missing or undecodable value.
func OptionalTime(data map[string]any, key string) *time.Time {
	t := toTime(data[key])
	if t.IsZero() {
		return nil
	}
	return &t
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t != nil {
			return t.UTC()
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	case map[string]any:
		secs, ok := toFloat(t["_seconds"])
		if !ok {
			secs, ok = toFloat(t["seconds"])
		}
		if !ok {
			return time.Time{}
		}
		nanos, _ := toFloat(t["_nanoseconds"])
		if nanos == 0 {
			nanos, _ = toFloat(t["nanoseconds"])
		}
		return time.Unix(int64(secs), int64(nanos)).UTC()
	}
	return time.Time{}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// Equal compares two field values, treating every numeric type as a float and
// times by instant.
func Equal(a, b any) bool {
	if fa, ok := numeric(a); ok {
		fb, ok := numeric(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return false
}

// Compare orders two field values of the same kind. Mixed kinds compare equal.
func Compare(a, b any) int {
	if fa, ok := numeric(a); ok {
		if fb, ok := numeric(b); ok {
			return cmp.Compare(fa, fb)
		}
		return 0
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if av {
				return 1
			}
			return -1
		}
	}
	return 0
}

func numeric(v any) (float64, bool) {
	if _, ok := v.(string); ok {
		return 0, false
	}
	return toFloat(v)
}

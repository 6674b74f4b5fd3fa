package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a raw source record keyed by source column name.
// No key is guaranteed to be present: every accessor takes a default.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Value returns the raw value for key, or def when the key is absent or nil.
func (r Row) Value(key string, def any) any {
	v, ok := r[key]
	if !ok || v == nil {
		return def
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// String returns the value for key as a string.
// Absent or nil values yield def. Scalars are formatted; composite values
// (maps, slices) are a type error.
func (r Row) String(key, def string) (string, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t), nil
	default:
		return "", &FieldError{Key: key, Want: "string", Got: v}
	}
}

// Int returns the value for key as an int64.
// Integral numbers and numeric strings are accepted; anything else is a type error.
func (r Row) Int(key string, def int64) (int64, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, &FieldError{Key: key, Want: "int64", Got: v}
		}
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, &FieldError{Key: key, Want: "int64", Got: v}
		}
		return int64(t), nil
	case float32:
		return floatToInt(key, float64(t))
	case float64:
		return floatToInt(key, t)
	case json.Number:
		return parseIntString(key, t.String())
	case string:
		return parseIntString(key, t)
	case []byte:
		return parseIntString(key, string(t))
	default:
		return 0, &FieldError{Key: key, Want: "int64", Got: v}
	}
}

// Bool returns the value for key as a bool.
// Booleans and strconv.ParseBool spellings ("t", "false", ...) are accepted.
func (r Row) Bool(key string, def bool) (bool, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, &FieldError{Key: key, Want: "bool", Got: v}
		}
		return b, nil
	case []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(string(t)))
		if err != nil {
			return false, &FieldError{Key: key, Want: "bool", Got: v}
		}
		return b, nil
	default:
		return false, &FieldError{Key: key, Want: "bool", Got: v}
	}
}

// Equals reports whether the value for key is exactly want.
// Comparison is case-sensitive; absent values never match.
func (r Row) Equals(key, want string) bool {
	switch t := r[key].(type) {
	case string:
		return t == want
	case []byte:
		return string(t) == want
	default:
		return false
	}
}

func floatToInt(key string, f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &FieldError{Key: key, Want: "int64", Got: f}
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, &FieldError{Key: key, Want: "int64", Got: f}
	}
	return int64(f), nil
}

// parseIntString accepts integer spellings and integral decimals ("12.0").
func parseIntString(key, s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, &FieldError{Key: key, Want: "int64", Got: s}
	}
	n, err := floatToInt(key, f)
	if err != nil {
		return 0, &FieldError{Key: key, Want: "int64", Got: s}
	}
	return n, nil
}

// FieldError is returned when a row field is present but has an unusable type.
type FieldError struct {
	Key  string
	Want string
	Got  any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T (%v)", e.Key, e.Want, e.Got, e.Got)
}

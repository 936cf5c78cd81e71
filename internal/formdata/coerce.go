package formdata

import (
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// literal parses JSON with encoding/json semantics: numbers decode to
// float64 and trailing bytes are an error.
var literal = jsoniter.ConfigCompatibleWithStandardLibrary

// Coerce returns a new map with every value of fields converted by CoerceValue.
func Coerce(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = CoerceValue(v)
	}
	return out
}

// CoerceValue converts a single raw form value.
//
// Examples:
//
//	"123"        -> float64(123)
//	"true"       -> true
//	`[{"width":100}]` -> []any{map[string]any{"width": float64(100)}}
//	"John Doe"   -> "John Doe"
//	""           -> ""
func CoerceValue(raw string) any {
	var v any
	if err := literal.UnmarshalFromString(raw, &v); err == nil {
		return v
	}

	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}

	return raw
}

package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Payload is a classifier request body keyed by field name.
type Payload map[string]any

// Number returns the numeric value of field, if it holds one.
func (p Payload) Number(field string) (float64, bool) {
	v, ok := p[field]
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

// String returns the value of field rendered as text.
func (p Payload) String(field string) string {
	v, ok := p[field]
	if !ok || v == nil {
		return ""
	}
	return toText(v)
}

// Normalize turns a loosely typed submission into a valid payload.
//
// Required and column fields are always present: a missing or unusable
// value is replaced by the field default. Other optional fields are kept
// only when the submission carries them. Numbers are clamped to the field range, enum
// values outside the allowed set fall back to the default and unknown keys
// are dropped.
func Normalize(raw map[string]any) Payload {
	out := make(Payload, len(fields))
	for _, f := range fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Required || f.Column {
				out[f.Name] = f.Default
			}
			continue
		}
		out[f.Name] = f.Normalize(v)
	}
	return out
}

// Normalize coerces a single value according to the field definition.
func (f Field) Normalize(v any) any {
	switch f.Kind {
	case KindNumber:
		n, ok := toNumber(v)
		if !ok {
			return f.Default
		}
		return clamp(n, f.Min, f.Max)
	case KindEnum:
		s, ok := v.(string)
		if !ok {
			return f.Default
		}
		s = strings.TrimSpace(s)
		for _, allowed := range f.Allowed {
			if s == allowed {
				return s
			}
		}
		return f.Default
	default:
		if s := strings.TrimSpace(toText(v)); s != "" {
			return s
		}
		return f.Default
	}
}

// Clamp limits a value to the numeric range of field. Values of
// non-numeric fields are returned unchanged.
func Clamp(field string, v float64) float64 {
	f, ok := fieldsByName[field]
	if !ok || f.Kind != KindNumber {
		return v
	}
	return clamp(v, f.Min, f.Max)
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}

// toNumber accepts JSON numbers and numeric strings. A decimal comma is
// accepted since French forms produce "2,5".
func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case int32:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// toText flattens multi-select answers ("Diabète", "Obésité") into the
// comma separated form the classifier searches with substring matching.
func toText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := toText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return Oui
		}
		return Non
	default:
		return fmt.Sprint(t)
	}
}

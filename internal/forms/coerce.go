package forms

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseIntOrZero reads the leading integer of v the way a browser's parseInt
// does and returns 0 when there is none. Operators are never blocked by a
// stray keystroke: "", "abc" and nil all store as 0.
func ParseIntOrZero(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint:
		return int(t)
	case float32:
		return truncFloat(float64(t))
	case float64:
		return truncFloat(t)
	case json.Number:
		return leadingInt(t.String())
	case string:
		return leadingInt(t)
	default:
		return 0
	}
}

func truncFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32*float64(1<<31) {
		return 0
	}
	return int(f)
}

func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// TextOrEmpty renders v as text; absent values become "".
func TextOrEmpty(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "0", "false", "no", "off":
			return false
		}
		return true
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		return leadingInt(t.String()) != 0
	default:
		return true
	}
}

// CoerceField converts a raw input into the stored representation of f.
func CoerceField(f Field, raw any) any {
	switch f.Kind {
	case KindNumber:
		return ParseIntOrZero(raw)
	case KindBool:
		return Truthy(raw)
	default:
		return TextOrEmpty(raw)
	}
}

// ZeroValue is what an unsaved field reads as.
func ZeroValue(f Field) any {
	switch f.Kind {
	case KindNumber:
		return 0
	case KindBool:
		return false
	default:
		return ""
	}
}

// CoerceFields returns every declared field of the schema coerced from in.
// Keys not declared by the schema are dropped.
func (s *Schema) CoerceFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields)+len(s.ShiftMeta))
	for _, f := range s.AllFields() {
		out[f.Key] = CoerceField(f, in[f.Key])
	}
	return out
}

// ReadFields fills in zero values for declared fields missing from stored.
func (s *Schema) ReadFields(stored map[string]any) map[string]any {
	out := make(map[string]any, len(s.Fields)+len(s.ShiftMeta))
	for _, f := range s.AllFields() {
		raw, ok := stored[f.Key]
		if !ok || raw == nil {
			out[f.Key] = ZeroValue(f)
			continue
		}
		out[f.Key] = CoerceField(f, raw)
	}
	return out
}

// CoerceCustom converts a custom value for storage and reports whether it
// should be written under the form's EAV policy.
func (s *Schema) CoerceCustom(raw any) (string, bool) {
	if s.EAVNumeric {
		n := ParseIntOrZero(raw)
		return strconv.Itoa(n), s.EAV == EAVExplicit || n != 0
	}
	v := TextOrEmpty(raw)
	return v, s.EAV == EAVExplicit || strings.TrimSpace(v) != ""
}

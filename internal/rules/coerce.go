package rules

import (
	"strconv"
	"strings"
)

// ValueType tags the runtime type of a field, driving how condition values
// are coerced before comparison.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumeric ValueType = "numeric"
	TypeBoolean ValueType = "boolean"
	TypeEnum    ValueType = "enum"
)

// Valid reports whether t is a recognized value type.
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeNumeric, TypeBoolean, TypeEnum:
		return true
	}
	return false
}

// TypedValue is a condition value after coercion to its field's type.
// Exactly one of Str/Num/Bool is meaningful, selected by Type.
type TypedValue struct {
	Type ValueType
	Str  string
	Num  float64
	Bool bool
}

// Coerce converts a stored condition value (always a string at rest) to the
// given value type. The ok result is false when the string cannot represent
// the type; callers treat that as a silent non-match, never an error, since
// the console lets users type partial or invalid values while editing.
func Coerce(raw string, t ValueType) (TypedValue, bool) {
	switch t {
	case TypeString, TypeEnum:
		return TypedValue{Type: t, Str: raw}, true
	case TypeNumeric:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return TypedValue{}, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return TypedValue{}, false
		}
		return TypedValue{Type: t, Num: f}, true
	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true":
			return TypedValue{Type: t, Bool: true}, true
		case "false":
			return TypedValue{Type: t, Bool: false}, true
		}
		return TypedValue{}, false
	default:
		return TypedValue{}, false
	}
}

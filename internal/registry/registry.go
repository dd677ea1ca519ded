// Package registry declares which fields exist per entity kind, each field's
// value type, and the operators legal for it. The tables are plain data,
// immutable after process start, and safe for concurrent reads. Operator
// legality is field-specific, not derived from the value type alone: the
// console exposes ends_with for a channel's name but not for its sourceName,
// and the registry must reproduce that contract exactly.
package registry

import (
	"fmt"
	"strings"

	"github.com/aerialtv/aerial/internal/rules"
)

// EntityKind identifies which candidate-entity schema a rule applies to.
type EntityKind string

const (
	// KindChannel is a live channel from an M3U or Xtream source.
	KindChannel EntityKind = "channel"
	// KindMedia is a library media item (movie, show, recording).
	KindMedia EntityKind = "media"
)

// Valid reports whether k names a known entity kind.
func (k EntityKind) Valid() bool {
	return k == KindChannel || k == KindMedia
}

// FieldDescriptor describes one queryable field of an entity kind.
type FieldDescriptor struct {
	Name      string           `json:"name"`
	Type      rules.ValueType  `json:"type"`
	Operators []rules.Operator `json:"operators"`
	// EnumValues lists the legal values for enum-typed fields; empty otherwise.
	EnumValues []string `json:"enumValues,omitempty"`
}

var channelFields = []FieldDescriptor{
	{Name: "group", Type: rules.TypeString, Operators: []rules.Operator{rules.OpEq, rules.OpNeq, rules.OpContains, rules.OpStartsWith}},
	{Name: "name", Type: rules.TypeString, Operators: []rules.Operator{rules.OpEq, rules.OpNeq, rules.OpContains, rules.OpNotContains, rules.OpStartsWith, rules.OpEndsWith}},
	{Name: "number", Type: rules.TypeNumeric, Operators: []rules.Operator{rules.OpEq, rules.OpGt, rules.OpLt, rules.OpGte, rules.OpLte}},
	{Name: "sourceName", Type: rules.TypeString, Operators: []rules.Operator{rules.OpEq, rules.OpNeq, rules.OpContains}},
	{Name: "sourceType", Type: rules.TypeEnum, Operators: []rules.Operator{rules.OpEq, rules.OpNeq}, EnumValues: []string{"m3u", "xtream"}},
	{Name: "hd", Type: rules.TypeBoolean, Operators: []rules.Operator{rules.OpEq}},
	{Name: "favorite", Type: rules.TypeBoolean, Operators: []rules.Operator{rules.OpEq}},
}

var mediaFields = []FieldDescriptor{
	{Name: "title", Type: rules.TypeString, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpContains, rules.OpStartsWith, rules.OpEndsWith}},
	{Name: "genre", Type: rules.TypeString, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpContains, rules.OpStartsWith, rules.OpEndsWith}},
	{Name: "year", Type: rules.TypeNumeric, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpGt, rules.OpLt}},
	{Name: "rating", Type: rules.TypeNumeric, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpGt, rules.OpLt}},
	{Name: "duration", Type: rules.TypeNumeric, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpGt, rules.OpLt}},
	{Name: "type", Type: rules.TypeEnum, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot}, EnumValues: []string{"movie", "show", "episode"}},
	{Name: "studio", Type: rules.TypeString, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpContains, rules.OpStartsWith}},
	{Name: "resolution", Type: rules.TypeString, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpContains}},
	// addedAt is presented as a date in the console but stored and compared
	// as epoch milliseconds.
	{Name: "addedAt", Type: rules.TypeNumeric, Operators: []rules.Operator{rules.OpIs, rules.OpIsNot, rules.OpGt, rules.OpLt}},
}

var tables = map[EntityKind][]FieldDescriptor{
	KindChannel: channelFields,
	KindMedia:   mediaFields,
}

// Fields returns the ordered field descriptors for an entity kind, or nil for
// an unknown kind. The slice is shared; callers must not mutate it.
func Fields(kind EntityKind) []FieldDescriptor {
	return tables[kind]
}

// Describe resolves a field by name for an entity kind. Lookup is
// case-insensitive so persisted rules survive casing drift between features.
func Describe(kind EntityKind, field string) (FieldDescriptor, bool) {
	for _, d := range tables[kind] {
		if strings.EqualFold(d.Name, field) {
			return d, true
		}
	}
	return FieldDescriptor{}, false
}

// LegalOperators returns the ordered operator set for a field, or nil when
// the field does not exist for the kind.
func LegalOperators(kind EntityKind, field string) []rules.Operator {
	d, ok := Describe(kind, field)
	if !ok {
		return nil
	}
	return d.Operators
}

// OperatorLegal reports whether op is in the field's legal set. Both sides
// are compared in canonical form so the is/eq spelling split between the
// media and channel features cannot make a legal operator look illegal.
func OperatorLegal(d FieldDescriptor, op rules.Operator) bool {
	canon := op.Canonical()
	for _, legal := range d.Operators {
		if legal.Canonical() == canon {
			return true
		}
	}
	return false
}

// Validate checks every registered table for configuration bugs: duplicate
// or empty field names, unknown value types, empty operator lists, enum
// fields without values. A failure here is a programmer error; the server
// calls Validate at startup and refuses to boot on error rather than
// degrading per-request.
func Validate() error {
	for kind, fields := range tables {
		seen := make(map[string]struct{}, len(fields))
		for _, d := range fields {
			name := strings.ToLower(d.Name)
			if name == "" {
				return fmt.Errorf("registry: %s has a field with an empty name", kind)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("registry: %s field %q declared twice", kind, d.Name)
			}
			seen[name] = struct{}{}
			if !d.Type.Valid() {
				return fmt.Errorf("registry: %s field %q has unknown value type %q", kind, d.Name, d.Type)
			}
			if len(d.Operators) == 0 {
				return fmt.Errorf("registry: %s field %q has no legal operators", kind, d.Name)
			}
			if d.Type == rules.TypeEnum && len(d.EnumValues) == 0 {
				return fmt.Errorf("registry: %s field %q is enum-typed but lists no values", kind, d.Name)
			}
			if d.Type != rules.TypeEnum && len(d.EnumValues) > 0 {
				return fmt.Errorf("registry: %s field %q lists enum values but is %s-typed", kind, d.Name, d.Type)
			}
		}
	}
	return nil
}

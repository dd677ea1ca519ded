package rules

import "strings"

// Operator represents a comparison operator used in rule conditions.
type Operator string

// Supported condition operators (string values for clean JSON serialization).
// The channel features persist the eq/neq spelling, the media features the
// is/is_not spelling; both normalize to the same handlers at evaluation time.
const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpIs          Operator = "is"
	OpIsNot       Operator = "is_not"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGte         Operator = "gte"
	OpLte         Operator = "lte"
)

// Canonical folds the spelling variants persisted by the different console
// features onto one operator per comparison: is/is_not come from the media
// pages, eq/neq from the channel pages, and the symbol forms from early
// exports. Unknown operators pass through unchanged and fail closed later.
func (o Operator) Canonical() Operator {
	switch strings.ToLower(string(o)) {
	case "eq", "is", "==":
		return OpEq
	case "neq", "is_not", "!=":
		return OpNeq
	case "contains":
		return OpContains
	case "not_contains":
		return OpNotContains
	case "starts_with", "startswith":
		return OpStartsWith
	case "ends_with", "endswith":
		return OpEndsWith
	case "gt", ">":
		return OpGt
	case "lt", "<":
		return OpLt
	case "gte", ">=":
		return OpGte
	case "lte", "<=":
		return OpLte
	default:
		return o
	}
}

// MatchMode selects how a RuleSet combines its conditions.
type MatchMode string

const (
	// MatchAny matches when at least one condition matches.
	MatchAny MatchMode = "any"
	// MatchAll matches only when every condition matches.
	MatchAll MatchMode = "all"
)

// Condition represents a single field/operator/value predicate.
// Value is always a string at rest; it is coerced to the field's value type
// at evaluation time.
type Condition struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
}

// Blank reports whether the condition carries no usable value. The console
// lets users add empty rows while editing, so blank conditions are inert:
// they are dropped before serialization and skipped during evaluation.
func (c Condition) Blank() bool {
	return strings.TrimSpace(c.Value) == ""
}

// RuleSet is the full in-memory representation of a stored rule: an ordered
// condition list plus a match mode. Condition order is preserved for
// round-trip fidelity and UI display; it never affects the match result.
type RuleSet struct {
	Conditions []Condition `json:"conditions"`
	Match      MatchMode   `json:"match"`
}

// Empty reports whether the rule set has no non-blank conditions.
// An empty rule set matches nothing in both modes: "no rules defined"
// renders as an empty result, never as "match everything".
func (rs RuleSet) Empty() bool {
	for _, c := range rs.Conditions {
		if !c.Blank() {
			return false
		}
	}
	return true
}

// Active returns the conditions that take part in evaluation, i.e. the
// non-blank ones, in their original order.
func (rs RuleSet) Active() []Condition {
	out := make([]Condition, 0, len(rs.Conditions))
	for _, c := range rs.Conditions {
		if !c.Blank() {
			out = append(out, c)
		}
	}
	return out
}

// Normalize returns a copy of rs with blank conditions removed and the match
// mode defaulted to MatchAny when unset or unrecognized. This is the exact
// normalization the editing console performs before saving.
func (rs RuleSet) Normalize() RuleSet {
	out := RuleSet{Conditions: rs.Active(), Match: rs.Match}
	if out.Match != MatchAll {
		out.Match = MatchAny
	}
	return out
}

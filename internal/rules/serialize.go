package rules

import (
	"encoding/json"
	"strings"
)

// storedRule is the wrapped persisted shape used by the channel features.
// The "enabled" flag is a caller-level gate carried by the channel-collection
// feature; the evaluator ignores it, so it is parsed and discarded here.
type storedRule struct {
	Conditions []Condition `json:"conditions"`
	Match      string      `json:"match"`
	Enabled    *bool       `json:"enabled,omitempty"`
}

// Parse decodes a stored rule string into a RuleSet. It never fails:
// malformed JSON or an unexpected shape yields an empty RuleSet with
// MatchAny, which matches nothing.
//
// Two persisted shapes are accepted:
//
//	{"conditions":[...], "match":"any"|"all"}   wrapped object (channel features)
//	[{"field":...,"op":...,"value":...}, ...]   bare array (media features)
//
// The bare array carries no match mode; those callers have always combined
// conditions with implicit AND, so it parses as MatchAll. This is a
// compatibility shim for the divergent formats, not a preference: Serialize
// only ever emits the wrapped shape.
func Parse(raw string) RuleSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RuleSet{Conditions: []Condition{}, Match: MatchAny}
	}

	if strings.HasPrefix(raw, "[") {
		var conds []Condition
		if err := json.Unmarshal([]byte(raw), &conds); err != nil {
			return RuleSet{Conditions: []Condition{}, Match: MatchAny}
		}
		return RuleSet{Conditions: conds, Match: MatchAll}
	}

	var stored storedRule
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return RuleSet{Conditions: []Condition{}, Match: MatchAny}
	}

	rs := RuleSet{Conditions: stored.Conditions, Match: MatchMode(stored.Match)}
	if rs.Conditions == nil {
		rs.Conditions = []Condition{}
	}
	if rs.Match != MatchAll {
		rs.Match = MatchAny
	}
	return rs
}

// Serialize encodes a RuleSet to the wrapped persisted shape. Blank-value
// conditions are dropped first, so stored rules never carry placeholder rows.
// Parse(Serialize(rs)) equals rs with blank conditions removed and the match
// mode normalized.
func Serialize(rs RuleSet) string {
	norm := rs.Normalize()
	b, err := json.Marshal(storedRule{Conditions: norm.Conditions, Match: string(norm.Match)})
	if err != nil {
		// Condition and MatchMode are plain strings; Marshal cannot fail on them.
		return `{"conditions":[],"match":"any"}`
	}
	return string(b)
}

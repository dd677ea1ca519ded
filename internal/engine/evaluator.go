// Package engine evaluates parsed rule sets against candidate entities.
// It is stateless: the same handlers and registry tables serve all entity
// kinds and all concurrent requests. Every semantically odd input (unknown
// field, illegal operator, uncoercible value, unreadable candidate field)
// degrades to "condition does not match" rather than an error, so a broken
// or half-edited rule never breaks a preview or a materialization run.
package engine

import (
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/rules"
)

// Entity is a candidate being tested against a rule. Field resolves a
// registry field name to the entity's runtime value; ok is false when the
// entity does not carry the field.
type Entity interface {
	Field(name string) (any, bool)
}

// Matches reports whether one candidate entity satisfies the rule set.
// An empty rule set (no non-blank conditions) matches nothing in both modes.
// MatchAll short-circuits on the first failing condition, MatchAny on the
// first passing one; since AND and OR are commutative, condition order never
// changes the result.
func Matches(kind registry.EntityKind, rs rules.RuleSet, entity Entity) bool {
	conds := rs.Active()
	if len(conds) == 0 {
		return false
	}

	all := rs.Match == rules.MatchAll
	for _, cond := range conds {
		ok := matchesCondition(kind, cond, entity)
		if all && !ok {
			return false
		}
		if !all && ok {
			return true
		}
	}
	return all
}

func matchesCondition(kind registry.EntityKind, cond rules.Condition, entity Entity) bool {
	desc, ok := registry.Describe(kind, cond.Field)
	if !ok {
		return false
	}
	op := cond.Op.Canonical()
	if !registry.OperatorLegal(desc, op) {
		return false
	}
	want, ok := rules.Coerce(cond.Value, desc.Type)
	if !ok {
		return false
	}
	got, ok := entity.Field(desc.Name)
	if !ok {
		return false
	}
	handler, ok := getOperatorHandler(op)
	if !ok {
		return false
	}
	return handler.Check(got, want)
}

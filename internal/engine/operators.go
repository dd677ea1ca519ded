package engine

import (
	"encoding/json"
	"strings"

	"github.com/aerialtv/aerial/internal/rules"
)

// OperatorHandler evaluates one condition operator against a candidate's
// field value. The condition value arrives already coerced to the field's
// value type; the candidate value is whatever the entity reported and is
// narrowed here, failing closed on a type mismatch.
type OperatorHandler interface {
	Check(candidateValue any, conditionValue rules.TypedValue) bool
}

var operatorHandlers = map[rules.Operator]OperatorHandler{
	rules.OpEq:          equalsHandler{},
	rules.OpNeq:         notEqualsHandler{},
	rules.OpContains:    containsHandler{},
	rules.OpNotContains: notContainsHandler{},
	rules.OpStartsWith:  startsWithHandler{},
	rules.OpEndsWith:    endsWithHandler{},
	rules.OpGt:          numericCompareHandler{cmp: func(a, b float64) bool { return a > b }},
	rules.OpLt:          numericCompareHandler{cmp: func(a, b float64) bool { return a < b }},
	rules.OpGte:         numericCompareHandler{cmp: func(a, b float64) bool { return a >= b }},
	rules.OpLte:         numericCompareHandler{cmp: func(a, b float64) bool { return a <= b }},
}

func getOperatorHandler(op rules.Operator) (OperatorHandler, bool) {
	h, ok := operatorHandlers[op.Canonical()]
	return h, ok
}

type equalsHandler struct{}

func (equalsHandler) Check(candidate any, want rules.TypedValue) bool {
	switch want.Type {
	case rules.TypeString, rules.TypeEnum:
		s, ok := toString(candidate)
		return ok && strings.EqualFold(s, want.Str)
	case rules.TypeNumeric:
		n, ok := toFloat64(candidate)
		return ok && n == want.Num
	case rules.TypeBoolean:
		b, ok := candidate.(bool)
		return ok && b == want.Bool
	}
	return false
}

type notEqualsHandler struct{}

func (notEqualsHandler) Check(candidate any, want rules.TypedValue) bool {
	// neq is the strict negation of eq: a candidate whose value cannot be
	// read still fails closed instead of matching by absence.
	switch want.Type {
	case rules.TypeString, rules.TypeEnum:
		s, ok := toString(candidate)
		return ok && !strings.EqualFold(s, want.Str)
	case rules.TypeNumeric:
		n, ok := toFloat64(candidate)
		return ok && n != want.Num
	case rules.TypeBoolean:
		b, ok := candidate.(bool)
		return ok && b != want.Bool
	}
	return false
}

type containsHandler struct{}

func (containsHandler) Check(candidate any, want rules.TypedValue) bool {
	s, ok := toString(candidate)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(want.Str))
}

type notContainsHandler struct{}

func (notContainsHandler) Check(candidate any, want rules.TypedValue) bool {
	s, ok := toString(candidate)
	if !ok {
		return false
	}
	return !strings.Contains(strings.ToLower(s), strings.ToLower(want.Str))
}

type startsWithHandler struct{}

func (startsWithHandler) Check(candidate any, want rules.TypedValue) bool {
	s, ok := toString(candidate)
	if !ok {
		return false
	}
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(want.Str))
}

type endsWithHandler struct{}

func (endsWithHandler) Check(candidate any, want rules.TypedValue) bool {
	s, ok := toString(candidate)
	if !ok {
		return false
	}
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(want.Str))
}

type numericCompareHandler struct {
	cmp func(a, b float64) bool
}

func (h numericCompareHandler) Check(candidate any, want rules.TypedValue) bool {
	if want.Type != rules.TypeNumeric {
		return false
	}
	n, ok := toFloat64(candidate)
	if !ok {
		return false
	}
	return h.cmp(n, want.Num)
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

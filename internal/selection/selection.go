// Package selection runs a rule set over a candidate pool and returns the
// ordered matching subset. Preview and materialization are two callers of
// the same Select function; that single code path is what makes a preview a
// trustworthy preview of a save.
package selection

import (
	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/engine"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/rules"
)

// Result is the outcome of one selection pass.
type Result struct {
	Items []catalog.Item
	Count int
}

// Keys returns the stable identifiers of the matched items, in pool order.
func (r Result) Keys() []string {
	keys := make([]string, len(r.Items))
	for i, item := range r.Items {
		keys[i] = item.Key()
	}
	return keys
}

// Select filters pool down to the entities matching rs, preserving the
// pool's input order. It is a pure function of its inputs: the same rule set
// over the same pool snapshot always yields the same result. An empty or
// unparsable rule matches nothing, so the result is empty, not an error.
func Select(kind registry.EntityKind, rs rules.RuleSet, pool []catalog.Item) Result {
	matched := make([]catalog.Item, 0, len(pool))
	for _, candidate := range pool {
		if engine.Matches(kind, rs, candidate) {
			matched = append(matched, candidate)
		}
	}
	return Result{Items: matched, Count: len(matched)}
}

// SelectRaw parses a stored rule string and selects with it. A malformed
// string degrades to the empty rule set, so a broken stored rule renders
// "no matches" rather than breaking the admin page.
func SelectRaw(kind registry.EntityKind, raw string, pool []catalog.Item) Result {
	return Select(kind, rules.Parse(raw), pool)
}

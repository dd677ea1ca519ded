package selection

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/rules"
)

func channelPool() []catalog.Item {
	return catalog.ChannelItems([]catalog.Channel{
		{ID: "ch-1", Group: "Sports", Name: "Sports One", Number: 201, HD: true},
		{ID: "ch-2", Group: "News", Name: "World News", Number: 101},
		{ID: "ch-3", Group: "sports", Name: "Sports Two", Number: 202},
	})
}

func mediaPool() []catalog.Item {
	return catalog.MediaItems([]catalog.MediaItem{
		{ID: "m-1", Title: "First", Genre: "Action", Year: 2015},
		{ID: "m-2", Title: "Second", Genre: "Action", Year: 2005},
		{ID: "m-3", Title: "Third", Genre: "Drama", Year: 2020},
	})
}

func TestSelectCaseInsensitiveEquality(t *testing.T) {
	rs := rules.RuleSet{
		Conditions: []rules.Condition{{Field: "group", Op: rules.OpEq, Value: "Sports"}},
		Match:      rules.MatchAny,
	}

	result := Select(registry.KindChannel, rs, channelPool())
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}
	keys := result.Keys()
	if keys[0] != "ch-1" || keys[1] != "ch-3" {
		t.Errorf("keys = %v, want [ch-1 ch-3] in pool order", keys)
	}
}

func TestSelectAllMode(t *testing.T) {
	rs := rules.RuleSet{
		Conditions: []rules.Condition{
			{Field: "year", Op: rules.OpGt, Value: "2010"},
			{Field: "genre", Op: rules.OpEq, Value: "Action"},
		},
		Match: rules.MatchAll,
	}

	result := Select(registry.KindMedia, rs, mediaPool())
	if result.Count != 1 {
		t.Fatalf("count = %d, want 1", result.Count)
	}
	if result.Items[0].Key() != "m-1" {
		t.Errorf("matched %s, want m-1", result.Items[0].Key())
	}
}

func TestSelectEmptyConditionsMatchNothing(t *testing.T) {
	rs := rules.RuleSet{Conditions: []rules.Condition{}, Match: rules.MatchAny}
	result := Select(registry.KindChannel, rs, channelPool())
	if result.Count != 0 || len(result.Items) != 0 {
		t.Errorf("empty rule set must match nothing, got count %d", result.Count)
	}
}

func TestSelectBooleanCondition(t *testing.T) {
	rs := rules.RuleSet{
		Conditions: []rules.Condition{{Field: "hd", Op: rules.OpEq, Value: "true"}},
		Match:      rules.MatchAll,
	}
	result := Select(registry.KindChannel, rs, channelPool())
	if result.Count != 1 || result.Items[0].Key() != "ch-1" {
		t.Errorf("expected only ch-1, got %v", result.Keys())
	}
}

func TestSelectRawMalformedMatchesNothing(t *testing.T) {
	result := SelectRaw(registry.KindChannel, "{not json", channelPool())
	if result.Count != 0 {
		t.Errorf("malformed rule must match nothing, got count %d", result.Count)
	}
	if result.Items == nil {
		t.Error("items must be an empty slice, not nil")
	}
}

func TestSelectPreservesPoolOrder(t *testing.T) {
	// Every channel, pool order intact.
	rs := rules.RuleSet{
		Conditions: []rules.Condition{{Field: "number", Op: rules.OpGt, Value: "0"}},
		Match:      rules.MatchAll,
	}
	result := Select(registry.KindChannel, rs, channelPool())
	keys := result.Keys()
	want := []string{"ch-1", "ch-2", "ch-3"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestSelectCountEqualsItems(t *testing.T) {
	rs := rules.Parse(`{"conditions":[{"field":"genre","op":"eq","value":"Action"}],"match":"any"}`)
	result := Select(registry.KindMedia, rs, mediaPool())
	if result.Count != len(result.Items) {
		t.Errorf("count %d != len(items) %d", result.Count, len(result.Items))
	}
}

// Property-based test: preview/materialize agreement is order and
// count consistency of the one Select path.
func TestSelect_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genRule := gen.OneConstOf(
		`{"conditions":[{"field":"group","op":"eq","value":"Sports"}],"match":"any"}`,
		`{"conditions":[{"field":"number","op":"gt","value":"150"}],"match":"all"}`,
		`{"conditions":[{"field":"hd","op":"eq","value":"true"},{"field":"group","op":"contains","value":"s"}],"match":"any"}`,
		`[]`,
		``,
		`{broken`,
	)

	properties.Property("count always equals the item count", prop.ForAll(
		func(raw string) bool {
			r := SelectRaw(registry.KindChannel, raw, channelPool())
			return r.Count == len(r.Items) && r.Count == len(r.Keys())
		},
		genRule,
	))

	properties.Property("selection is deterministic", prop.ForAll(
		func(raw string) bool {
			a := SelectRaw(registry.KindChannel, raw, channelPool())
			b := SelectRaw(registry.KindChannel, raw, channelPool())
			if a.Count != b.Count {
				return false
			}
			ak, bk := a.Keys(), b.Keys()
			for i := range ak {
				if ak[i] != bk[i] {
					return false
				}
			}
			return true
		},
		genRule,
	))

	properties.Property("condition order never changes the result", prop.ForAll(
		func(all bool) bool {
			match := rules.MatchAny
			if all {
				match = rules.MatchAll
			}
			conds := []rules.Condition{
				{Field: "group", Op: rules.OpEq, Value: "Sports"},
				{Field: "hd", Op: rules.OpEq, Value: "true"},
				{Field: "number", Op: rules.OpLt, Value: "300"},
			}
			reversed := []rules.Condition{conds[2], conds[1], conds[0]}

			fwd := Select(registry.KindChannel, rules.RuleSet{Conditions: conds, Match: match}, channelPool())
			rev := Select(registry.KindChannel, rules.RuleSet{Conditions: reversed, Match: match}, channelPool())
			if fwd.Count != rev.Count {
				return false
			}
			fk, rk := fwd.Keys(), rev.Keys()
			for i := range fk {
				if fk[i] != rk[i] {
					return false
				}
			}
			return true
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Package validation lints stored rule strings against the field registry.
// The evaluator itself never errors on a bad rule (every defect degrades to
// "condition does not match"), so this package exists for the editing
// console: it surfaces the defects the evaluator silently swallows, as
// warnings the user can fix before saving.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/rules"
)

// Issue describes one problem found in a rule string.
type Issue struct {
	Index   int    `json:"index"`          // condition index, -1 for rule-level issues
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Report is the outcome of linting one rule string.
type Report struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Lint checks a stored rule string against the registry for kind. A report
// with Valid=false never prevents saving; the engine fails closed on every
// issue reported here.
func Lint(kind registry.EntityKind, raw string) Report {
	report := Report{Valid: true, Issues: []Issue{}}

	if !kind.Valid() {
		report.Valid = false
		report.Issues = append(report.Issues, Issue{Index: -1, Message: fmt.Sprintf("unknown entity kind %q", kind)})
		return report
	}

	if raw != "" && !json.Valid([]byte(raw)) {
		// Parse will fall back to the empty rule set for this string.
		report.Valid = false
		report.Issues = append(report.Issues, Issue{Index: -1, Message: "rule string is not valid JSON; it will match nothing"})
		return report
	}

	rs := rules.Parse(raw)

	for i, cond := range rs.Conditions {
		if cond.Blank() {
			report.Issues = append(report.Issues, Issue{Index: i, Field: cond.Field, Message: "blank value; this row is ignored"})
			continue
		}
		desc, ok := registry.Describe(kind, cond.Field)
		if !ok {
			report.Valid = false
			report.Issues = append(report.Issues, Issue{Index: i, Field: cond.Field, Message: fmt.Sprintf("unknown field for %s entities", kind)})
			continue
		}
		if !registry.OperatorLegal(desc, cond.Op) {
			report.Valid = false
			report.Issues = append(report.Issues, Issue{Index: i, Field: cond.Field, Message: fmt.Sprintf("operator %q is not legal for field %q", cond.Op, desc.Name)})
			continue
		}
		if _, ok := rules.Coerce(cond.Value, desc.Type); !ok {
			report.Valid = false
			report.Issues = append(report.Issues, Issue{Index: i, Field: cond.Field, Message: fmt.Sprintf("value %q is not a valid %s", cond.Value, desc.Type)})
		}
	}

	if rs.Empty() {
		report.Issues = append(report.Issues, Issue{Index: -1, Message: "no effective conditions; this rule matches nothing"})
	}

	return report
}

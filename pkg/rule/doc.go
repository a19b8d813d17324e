// Package rule defines validation rule descriptors and the ordered registry
// the engine matches them from.
//
// A Rule owns three things: a Selector deciding whether it applies to a
// unit's representative element, a pure Validate function, and a default
// message used when no markup template overrides it. Rules are keyed by a
// unique name; the name links a rule to its attributes, its message
// templates and its inline overrides.
//
// Registration order is evaluation order. The engine stops at the first
// failing rule of a unit, so registering "required" before format rules
// makes empty fields report "required" and nothing else.
//
// # Usage
//
//	reg := rule.Default(
//	    rule.WithLogger(log),
//	    rule.WithCustom("even", func(v field.Value, u *field.Unit) rule.Outcome {
//	        n, _ := strconv.Atoi(v.String())
//	        if n%2 != 0 {
//	            return rule.Fail(rule.Params{"value": n})
//	        }
//	        return rule.Pass()
//	    }),
//	)
//	for _, r := range reg.Matching(unit) {
//	    if out := r.Validate(unit.Value(), unit); !out.Valid {
//	        // resolve and render r's message
//	    }
//	}
package rule

// Package form validates the controls under one root element.
//
// A Form groups the controls under its root into units, binds the rules
// that apply to each unit, and paints at most one error per unit. It is
// driven either directly, through Validate and ValidateUnit, or by events
// dispatched into the document:
//
//   - submit on the root validates everything and cancels the submission
//     when anything fails
//   - click on a [data-fg-trigger] element does the same
//   - blur and change validate the target's unit when live validation is on
//   - input schedules a debounced validation of the target's unit
//   - fg:field-added regroups the root
//
// Behaviour is configured with data-fg-* attributes on the root. Options
// passed to New take precedence over them.
//
//	f, err := form.New(doc, root, rule.Default(), message.NewResolver())
//	if err != nil {
//	    return err
//	}
//	if err := f.Init(); err != nil {
//	    return err
//	}
//	if !f.Validate() {
//	    for _, fe := range f.Errors() {
//	        log.Info("invalid field", "field", fe.Field, "rule", fe.Rule)
//	    }
//	}
//
// Validation failures are reported as values. Errors are returned only for
// wiring mistakes and for use after Destroy.
package form

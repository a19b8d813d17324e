// Package field turns the form controls found under a validation root into
// units and resolves their current values.
//
// A Unit is one logical field. Controls that share a name collapse into one
// unit; controls without a name always stay on their own. Every unit has
// exactly one Kind:
//
//   - KindSingle: one element
//   - KindArray: two or more same-named elements that are not checkboxes or radios
//   - KindChoice: two or more same-named checkboxes or radios
//
// Values are read from the DOM on every call and never cached, so a Value
// always reflects the tree as it is right now. Bind writes submitted form
// values back into the tree, which is how server-side hosts feed a request
// into the engine.
package field

// Package render owns the error display of a single validation unit.
//
// A Renderer paints one error at a time: it marks the unit's display
// elements with the style's error class and aria-invalid, optionally wraps
// the element, and inserts one message node tagged with
//
//	data-fg-error="<root id>:<unit key>"
//
// Clear removes only nodes with that exact tag, so message templates and
// the errors of other units are never touched. Both operations are
// idempotent.
//
// Styles are class-naming profiles. default, bootstrap and tailwind are
// built in; RegisterStyle adds more.
package render

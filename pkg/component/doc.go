// Package component discovers marked elements in a document and keeps one
// live instance per element.
//
// Factories are registered per marker attribute. Scan walks a subtree and
// instantiates every marked element that does not hold an instance yet; it
// can be re-run after new markup is inserted and only picks up new roots.
// A failing factory is logged and skipped, the rest of the scan goes on.
//
// Every instance gets a data-fg-instance attribute with its id. Scan
// dispatches fg:created on each new root and one fg:scanned on the scan
// root, and publishes both, along with any forwarded instance signals, to
// the registry's broadcast bus.
package component

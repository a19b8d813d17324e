package component

import "golang.org/x/net/html"

// State is shared configuration pushed to every instance, for example
// {"style": "bootstrap", "live": true}.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Component is a live instance bound to one marked element.
type Component interface {
	// Init attaches the instance to its root. It runs once, right after the
	// factory returns.
	Init() error
	// Destroy detaches the instance and removes everything it added to the
	// document.
	Destroy()
	// OnStateChange receives a copy of the shared state.
	OnStateChange(State)
}

// Factory builds the component for a marked root.
type Factory func(root *html.Node) (Component, error)

// Entry describes one tracked instance.
type Entry struct {
	ID        string
	Marker    string
	Root      *html.Node
	Component Component
}

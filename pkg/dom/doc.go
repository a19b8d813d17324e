// Package dom provides the document model the validation engine runs on.
//
// A Document wraps a golang.org/x/net/html node tree and adds the two things
// the tree itself lacks: event listeners with bubbling dispatch, and a mutex
// that lets timer callbacks join the host's single logical UI thread.
//
// # Architecture
//
// Nodes are plain *html.Node values. The package-level helpers in node.go
// read and mutate attributes, classes and text, while query.go compiles CSS
// selectors with github.com/andybalholm/cascadia and caches them per
// selector string.
//
// Events are synthetic. Dispatch walks from the target up to the document
// node, invoking the listeners registered on each ancestor in registration
// order. Listeners may call PreventDefault or StopPropagation exactly like
// their browser counterparts.
//
// # Concurrency
//
// A Document is not safe for concurrent use. Work that starts on another
// goroutine, for example a debounced validation fired by time.AfterFunc,
// must enter through Do, which holds the document mutex for the duration of
// the callback. Hosts that schedule such work should route their own event
// dispatch through Do as well.
//
// # Usage
//
//	doc, err := dom.ParseString(`<form data-fg-validate><input name="email" required></form>`)
//	if err != nil {
//	    return err
//	}
//	form := dom.MustQuery(doc.Root(), "form")
//	doc.Listen(form, dom.EventSubmit, func(ev *dom.Event) {
//	    ev.PreventDefault()
//	})
//	ok := doc.Dispatch(form, dom.NewEvent(dom.EventSubmit, nil))
package dom

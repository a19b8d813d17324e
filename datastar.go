package formguard

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/goccy/go-json"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/form"
)

const (
	DataStarAcceptHeader = "text/event-stream"
	DataStarQueryParam   = "datastar"
)

// IsDataStar reports whether r expects a datastar SSE response.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), DataStarAcceptHeader) {
		return true
	}
	if r.URL.Query().Has(DataStarQueryParam) {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/x-datastar")
}

// errorSignals is the signal payload sent along with form patches.
type errorSignals struct {
	Errors map[string][]string `json:"fgErrors"`
	Valid  bool                `json:"fgValid"`
}

// PatchForms streams each form that carries an id attribute back as an
// outer-HTML patch, followed by an fgErrors/fgValid signal patch. It
// returns the number of patched forms.
func PatchForms(sse *datastar.ServerSentEventGenerator, forms []*form.Form, verr ValidationError) (int, error) {
	patched := 0
	for _, f := range forms {
		id := dom.AttrOr(f.Root(), "id", "")
		if id == "" {
			continue
		}
		err := sse.PatchElementTempl(
			templ.Raw(dom.OuterHTML(f.Root())),
			datastar.WithSelector("#"+id),
			datastar.WithMode(datastar.ElementPatchModeOuter),
		)
		if err != nil {
			return patched, err
		}
		patched++
	}

	signals, err := json.Marshal(errorSignals{Errors: verr, Valid: verr.IsEmpty()})
	if err != nil {
		return patched, err
	}
	return patched, sse.PatchSignals(signals)
}

package formguard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/formguard/pkg/dom"
	"github.com/dmitrymomot/formguard/pkg/form"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

// PageLoader returns a fresh page for a request. It returns ErrNoPage when
// nothing matches the request. The handler closes the page when done.
type PageLoader func(r *http.Request) (*Page, error)

// ValidFunc answers a submission whose page validated.
type ValidFunc func(w http.ResponseWriter, r *http.Request, p *Page)

// ErrorHandler answers a request that failed before validation.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandlerOption configures a handler.
type HandlerOption func(*pageHandler)

// OnValid replaces the default success response, a 303 redirect to the
// same path with ?ok=1.
func OnValid(fn ValidFunc) HandlerOption {
	return func(h *pageHandler) {
		if fn != nil {
			h.onValid = fn
		}
	}
}

func WithErrorHandler(fn ErrorHandler) HandlerOption {
	return func(h *pageHandler) {
		if fn != nil {
			h.onError = fn
		}
	}
}

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *pageHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

type pageHandler struct {
	load    PageLoader
	onValid ValidFunc
	onError ErrorHandler
	logger  *slog.Logger
}

// Handler serves pages produced by load.
//
// GET and HEAD render the scanned page. POST binds the submitted form
// values, validates, and answers an invalid submission by request kind:
// datastar requests get one outer patch per form plus an fgErrors signal
// patch, htmx requests get the targeted form fragment, and plain requests
// get the full page with 422 Unprocessable Entity.
func Handler(load PageLoader, opts ...HandlerOption) http.Handler {
	h := &pageHandler{
		load:    load,
		onValid: redirectOK,
		onError: defaultErrorHandler,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	page, err := h.load(r)
	if err != nil {
		h.onError(w, r, err)
		return
	}
	defer page.Close()
	page.Scan(nil)

	if r.Method != http.MethodPost {
		h.writePage(w, r, page, http.StatusOK)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.onError(w, r, errors.Join(ErrBadSubmission, err))
		return
	}
	if err := page.Bind(r.PostForm); err != nil {
		h.onError(w, r, err)
		return
	}
	if page.Validate() {
		h.onValid(w, r, page)
		return
	}

	verr := page.Errors()
	h.logger.DebugContext(r.Context(), "submission rejected",
		slog.String("path", r.URL.Path), logger.Count(len(verr)))

	switch {
	case IsDataStar(r):
		h.patch(w, r, page, verr)
	case IsHTMX(r):
		h.fragment(w, r, page)
	default:
		h.writePage(w, r, page, http.StatusUnprocessableEntity)
	}
}

func (h *pageHandler) writePage(w http.ResponseWriter, r *http.Request, page *Page, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if err := page.Component().Render(r.Context(), w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", logger.Error(err))
	}
}

func (h *pageHandler) patch(w http.ResponseWriter, r *http.Request, page *Page, verr ValidationError) {
	forms := page.Forms()
	sse := datastar.NewSSE(w, r)
	var (
		n   int
		err error
	)
	page.Document().Do(func() { n, err = PatchForms(sse, forms, verr) })
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to patch forms", logger.Error(err))
		return
	}
	if n == 0 {
		h.logger.WarnContext(r.Context(), "no form has an id, nothing to patch", slog.String("path", r.URL.Path))
	}
}

// fragment writes the form htmx targets. Without a matching target it picks
// the first invalid form and retargets the swap to it.
func (h *pageHandler) fragment(w http.ResponseWriter, r *http.Request, page *Page) {
	var target *form.Form
	if id := HTMXTarget(r); id != "" {
		target, _ = page.Form(id)
	}
	retarget := false
	if target == nil {
		failing := page.FieldErrors()
		for _, f := range page.Forms() {
			if len(failing[f.ID()]) > 0 {
				target, retarget = f, true
				break
			}
		}
	}
	if target == nil {
		h.writePage(w, r, page, http.StatusUnprocessableEntity)
		return
	}

	if id := dom.AttrOr(target.Root(), "id", ""); retarget && id != "" {
		w.Header().Set(HXRetarget, "#"+id)
	}
	w.Header().Set(HXReswap, "outerHTML")
	w.Header().Set(HXTrigger, form.SignalInvalid)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := page.FormComponent(target.ID()).Render(r.Context(), w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render form", logger.Error(err))
	}
}

func redirectOK(w http.ResponseWriter, r *http.Request, _ *Page) {
	to := r.URL.Path + "?ok=1"
	if IsDataStar(r) {
		_ = datastar.NewSSE(w, r).Redirect(to)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoPage):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, ErrBadSubmission):
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formguard/pkg/logger"
)

// Header is the default header carrying the id.
const Header = "X-Request-ID"

const maxLength = 128

var wellFormed = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type ctxKey struct{}

// WithContext stores id in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Extractor returns a logger context extractor for the request id.
func Extractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}

// Option configures the middleware.
type Option func(*options)

type options struct {
	header   string
	generate func() string
}

// WithHeader reads and writes the id under a different header.
func WithHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.header = name
		}
	}
}

// WithGenerator replaces the UUID generator.
func WithGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.generate = fn
		}
	}
}

// Middleware returns the request id middleware.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	o := options{header: Header, generate: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(o.header)
			if !valid(id) {
				id = o.generate()
			}
			w.Header().Set(o.header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

func valid(id string) bool {
	return id != "" && len(id) <= maxLength && wellFormed.MatchString(id)
}

package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/dmitrymomot/formguard/pkg/logger"
)

// DefaultHeaders are consulted in order before RemoteAddr.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// Resolve returns the client address of r using headers, or "" when nothing
// parses.
func Resolve(r *http.Request, headers ...string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For lists the original client first.
		for part := range strings.SplitSeq(v, ",") {
			if ip := parse(part); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

func parse(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type ctxKey struct{}

// WithContext stores ip in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

// FromContext returns the address stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// Extractor returns a logger context extractor for the client address.
func Extractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return logger.ClientIP(ip), true
		}
		return slog.Attr{}, false
	}
}

// Middleware resolves the client address once per request. With no headers
// given it trusts DefaultHeaders; pass a header list to narrow it.
func Middleware(headers ...string) func(http.Handler) http.Handler {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := Resolve(r, headers...)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), ip)))
		})
	}
}

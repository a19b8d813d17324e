package clientip_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/formguard/pkg/clientip"
	"github.com/dmitrymomot/formguard/pkg/logger"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:80", want: "2001:db8::1"},
		{name: "cloudflare wins", remote: "10.0.0.1:1", headers: map[string]string{
			"CF-Connecting-IP": "203.0.113.5", "X-Forwarded-For": "198.51.100.1",
		}, want: "203.0.113.5"},
		{name: "first forwarded", remote: "10.0.0.1:1", headers: map[string]string{
			"X-Forwarded-For": "garbage, 198.51.100.1, 10.0.0.2",
		}, want: "198.51.100.1"},
		{name: "mapped ipv4", remote: "10.0.0.1:1", headers: map[string]string{
			"X-Real-IP": "::ffff:198.51.100.7",
		}, want: "198.51.100.7"},
		{name: "bad header falls back", remote: "192.0.2.9:1", headers: map[string]string{
			"X-Real-IP": "not-an-ip",
		}, want: "192.0.2.9"},
		{name: "nothing parses", remote: "pipe", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.Resolve(r, clientip.DefaultHeaders...))
		})
	}
}

func TestMiddlewareNarrowHeaders(t *testing.T) {
	t.Parallel()

	var seen string
	h := clientip.Middleware("X-Real-IP")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1"
	r.Header.Set("CF-Connecting-IP", "203.0.113.5")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "192.0.2.1", seen)
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON),
		logger.WithContextExtractors(clientip.Extractor()))
	log.InfoContext(clientip.WithContext(context.Background(), "192.0.2.1"), "hit")
	assert.Contains(t, buf.String(), `"client_ip":"192.0.2.1"`)

	assert.Empty(t, clientip.FromContext(context.Background()))
}

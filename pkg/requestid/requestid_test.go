package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/logger"
	"github.com/dmitrymomot/formguard/pkg/requestid"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, header string) (seen, echoed string) {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		reuse  bool
	}{
		{name: "generates when missing"},
		{name: "reuses well formed", header: "req-42_a", reuse: true},
		{name: "replaces malformed", header: "bad id!"},
		{name: "replaces oversized", header: strings.Repeat("a", 129)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			seen, echoed := serve(t, requestid.Middleware(), tt.header)
			require.NotEmpty(t, seen)
			assert.Equal(t, seen, echoed)
			if tt.reuse {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}

	t.Run("custom generator", func(t *testing.T) {
		t.Parallel()
		seen, _ := serve(t, requestid.Middleware(requestid.WithGenerator(func() string { return "fixed" })), "")
		assert.Equal(t, "fixed", seen)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Empty(t, requestid.FromContext(nil))
	assert.Equal(t, "abc", requestid.FromContext(requestid.WithContext(context.Background(), "abc")))
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(requestid.Extractor()),
	)
	log.InfoContext(requestid.WithContext(context.Background(), "req-1"), "validated")
	log.InfoContext(context.Background(), "no id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"req-1"`)
	assert.NotContains(t, lines[1], "request_id")
}

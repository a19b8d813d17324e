package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/message"
)

func testCollector(t *testing.T, cfg Config) *Collector {
	t.Helper()
	cfg.Enabled = true
	return NewCollector(cfg, nil)
}

func TestObserveValidation(t *testing.T) {
	t.Parallel()

	c := testCollector(t, Config{Namespace: "test"})
	c.ObserveValidation("signup", false, 2, 3*time.Millisecond)
	c.ObserveValidation("signup", true, 0, time.Millisecond)
	c.ObserveValidation("signup", true, 0, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.validations.WithLabelValues("signup", "invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.validations.WithLabelValues("signup", "valid")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestFormCardinality(t *testing.T) {
	t.Parallel()

	c := testCollector(t, Config{MaxForms: 2})
	for _, id := range []string{"a", "b", "c", "d", "a"} {
		c.ObserveValidation(id, true, 0, time.Millisecond)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(c.validations.WithLabelValues("a", "valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.validations.WithLabelValues(OtherForm, "valid")))
	assert.Equal(t, 2, c.forms.Count())
}

func TestObserveFailureAndTier(t *testing.T) {
	t.Parallel()

	c := testCollector(t, Config{})
	c.ObserveFailure("required")
	c.ObserveFailure("required")
	c.ObserveTier("email", message.TierDefault)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.failures.WithLabelValues("required")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messages.WithLabelValues("email", "4")))
}

func TestObserveScan(t *testing.T) {
	t.Parallel()

	c := testCollector(t, Config{})
	c.ObserveScan(3, 1)
	c.ObserveScan(2, 0)
	assert.Equal(t, 5.0, testutil.ToFloat64(c.created))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scanErrors))
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	c := NewCollector(Config{Enabled: false}, nil)
	c.ObserveValidation("x", true, 0, time.Millisecond)
	c.ObserveFailure("required")
	c.ObserveScan(1, 1)
	assert.Zero(t, testutil.ToFloat64(c.created))
	assert.Zero(t, testutil.CollectAndCount(c.validations))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	c := testCollector(t, Config{})
	c.ObserveFailure("pattern")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `formguard_rule_failures_total{rule="pattern"} 1`)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationCounters(t *testing.T) {
	m := New()
	m.Operation("login", ResultOK)
	m.Operation("login", ResultOK)
	m.Operation("login", ResultUnauthorized)
	m.ReuseDetected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("login", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("login", ResultUnauthorized)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reuse))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Operation("refresh", ResultOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `auth_operations_total{op="refresh",result="ok"} 1`)
	assert.Contains(t, string(body), "auth_refresh_reuse_detected_total 0")
}

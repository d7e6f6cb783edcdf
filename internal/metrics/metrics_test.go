package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-sfdc-login/internal/metrics"
)

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.LoginCompleted("salesforce-production", nil)
	m.LoginCompleted("salesforce-production", errors.New("boom"))
	m.OrgCheck("salesforce-production", metrics.OrgPermissionDenied)
	m.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Logins().WithLabelValues("salesforce-production", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Logins().WithLabelValues("salesforce-production", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.OrgChecks().WithLabelValues("salesforce-production", metrics.OrgPermissionDenied)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "sfdc_logins_total")
	require.Contains(t, string(body), `path="/healthz"`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.LoginCompleted("p", nil)
	m.OrgCheck("p", metrics.OrgVerified)
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, 0)
}

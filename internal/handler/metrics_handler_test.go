package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

func TestMetricsHandlerHealthAndReady(t *testing.T) {
	ts := newTestServer(t, map[string]Pinger{
		"postgres": PingerFunc(func(ctx context.Context) error { return nil }),
	})

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "", nil).Code)

	rec := ts.do(http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"up"`)
}

func TestMetricsHandlerReadyReportsDownDependency(t *testing.T) {
	ts := newTestServer(t, map[string]Pinger{"redis": failingPinger{}})

	rec := ts.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(http.MethodGet, "/health", "", nil)

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsHandlerSummaryRequiresAdmin(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/system/metrics", bearer(t, "l-1", models.RoleLecturer), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/system/metrics", bearer(t, "a-1", models.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reportkit/dashboard/internal/export"
	"github.com/reportkit/dashboard/internal/schema"
	"github.com/reportkit/dashboard/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Gateway) {
	t.Helper()
	gateway := storage.NewGateway(storage.NewMemoryStore())
	exporter := export.New(export.NewChartRasterizer(), zap.NewNop())
	return NewServer(gateway, exporter, zap.NewNop(), "../.."), gateway
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaveAndGetDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	state := schema.Empty()
	state.Config.Environment = schema.Env(schema.EnvProd)
	state.TestCases = schema.TestCaseData{
		Total:   schema.Int(100),
		Passed:  schema.Int(60),
		Failed:  schema.Int(30),
		Skipped: schema.Int(5),
	}
	state.Remarks.Overall = "release candidate"

	rec := doJSON(t, h, http.MethodPost, "/api/dashboard/release-1", state)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/dashboard/release-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got schema.DashboardState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, state, got)
}

func TestGetDashboardNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/dashboard/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Dashboard not found"}`, rec.Body.String())
}

func TestSaveDashboardRejectsInvalidState(t *testing.T) {
	s, gw := newTestServer(t)

	state := schema.Empty()
	state.TestCases = schema.TestCaseData{
		Total:  schema.Int(10),
		Passed: schema.Int(6),
		Failed: schema.Int(6),
	}

	rec := doJSON(t, s.Router(), http.MethodPost, "/api/dashboard/bad", state)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Invalid dashboard data"}`, rec.Body.String())

	_, err := gw.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveDashboardRejectsMalformedJSON(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/junk", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Invalid dashboard data"}`, rec.Body.String())
}

func TestListDashboards(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := doJSON(t, h, http.MethodGet, "/api/dashboards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/dashboard/a", schema.Empty()).Code)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/dashboard/b", schema.Empty()).Code)

	rec = doJSON(t, h, http.MethodGet, "/api/dashboards", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []schema.DashboardState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}

func TestExportDashboard(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	state := schema.Empty()
	state.Config.Site = schema.SiteOf(schema.SiteFRA1)
	state.TestCases.Passed = schema.Int(12)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/dashboard/exp", state).Code)

	rec := doJSON(t, h, http.MethodGet, "/api/dashboard/exp/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "test-case-dashboard-NoEnv-FRA1-")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestExportDashboardNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/dashboard/missing/export", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "Dashboard not found"}`, rec.Body.String())
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestDashboardPage(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	state := schema.Empty()
	state.Config.Environment = schema.Env(schema.EnvDev)
	state.TestCases.Passed = schema.Int(3)
	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/api/dashboard/page-1", state).Code)

	rec := doJSON(t, h, http.MethodGet, "/dashboard/page-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "DEV")
}

func TestDashboardPageNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/dashboard/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	require.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/api/dashboards", nil).Code)

	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_requests_total")
}

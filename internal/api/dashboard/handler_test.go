package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newDashboardRouter(t *testing.T, upstreamHandler http.Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstreamHandler)
	t.Cleanup(srv.Close)

	cfg := config.UpstreamConfig{
		BaseURL:          srv.URL,
		MetricsPath:      "/webhook/metrics",
		RetrievalPath:    "/webhook/retrieval",
		WorkflowTestPath: "/webhook/workflow-test",
	}
	handler := NewHandler(upstream.NewClient(cfg, zap.NewNop()))

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/dashboard"))
	return router
}

func TestGetMetrics(t *testing.T) {
	router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"summary": {"totalDocs": 4, "totalQueries": 20, "avgLatencyMs": 101},
			"timeseries": [{"date": "2026-08-30", "queries": 20, "avgLatencyMs": 101}]
		}`))
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Summary struct {
			TotalDocs float64 `json:"totalDocs"`
		} `json:"summary"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Summary.TotalDocs != 4 {
		t.Fatalf("unexpected metrics %s", rec.Body.String())
	}
}

func TestGetMetricsFailsClosedOnBadShape(t *testing.T) {
	router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/metrics", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestGetRetrieval(t *testing.T) {
	router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"p1","snippet":"indexed passage","score":0.92}]}`))
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/retrieval", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "indexed passage") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestTriggerWorkflowTestRequiresID(t *testing.T) {
	router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called without a workflowId")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/workflow-test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerWorkflowTest(t *testing.T) {
	router := newDashboardRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["workflowId"] != "wf-9" {
			t.Errorf("unexpected payload %v", payload)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "test started"})
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dashboard/workflow-test", strings.NewReader(`{"workflowId":"wf-9"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "test started") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

package research

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/ratelimit"
	"github.com/firstfamily/ragdash/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newResearchRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limiter, err := ratelimit.New(ratelimit.NewMemoryStore(), 10, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	// no generator configured: scrape requests report a structured failure
	cfg := &config.Config{LLM: config.LLMConfig{Provider: "gemini"}}
	svc := service.NewScrapeService(cfg, limiter, nil, zap.NewNop())
	handler := NewHandler(svc)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/research"))
	return router
}

func TestScrapeMalformedBody(t *testing.T) {
	router := newResearchRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScrapeFailureIsStructuredNot5xx(t *testing.T) {
	router := newResearchRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"input":"some query"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if result.Success {
		t.Fatalf("expected structured failure, got %s", rec.Body.String())
	}
	if result.Error != "generation API key not set" {
		t.Fatalf("unexpected error %q", result.Error)
	}
}

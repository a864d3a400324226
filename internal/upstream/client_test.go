package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.UpstreamConfig{
		BaseURL:          srv.URL,
		APIKey:           "secret-key",
		ChatPath:         "/webhook/chat",
		UploadPath:       "/webhook/upload",
		MetricsPath:      "/webhook/metrics",
		RetrievalPath:    "/webhook/retrieval",
		WorkflowTestPath: "/webhook/workflow-test",
	}
	return NewClient(cfg, zap.NewNop()), srv
}

func TestQueryChatEnvelope(t *testing.T) {
	var gotBody map[string]any
	var gotAccept, gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte("ok"))
	}))

	reply, err := client.QueryChat(context.Background(), domain.ChatRequest{
		Query:          "what is in the index?",
		ConversationID: "c1",
	})
	if err != nil {
		t.Fatalf("QueryChat: %v", err)
	}
	defer reply.Body.Close()

	if len(gotBody) != 1 || gotBody["chatInput"] != "what is in the index?" {
		t.Fatalf("expected bare chatInput envelope, got %v", gotBody)
	}
	if gotAccept != "text/event-stream" {
		t.Fatalf("expected SSE accept header, got %q", gotAccept)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestQueryChatTextExtractsAnswer(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output":"The index holds 3 documents.","chatInput":"what is in the index?"}`))
	}))

	text, err := client.QueryChatText(context.Background(), domain.ChatRequest{Query: "what is in the index?"})
	if err != nil {
		t.Fatalf("QueryChatText: %v", err)
	}
	if text != "The index holds 3 documents." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestQueryChatTextEchoOnlyReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chatInput":"hello"}`))
	}))

	text, err := client.QueryChatText(context.Background(), domain.ChatRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("QueryChatText: %v", err)
	}
	if text != "" {
		t.Fatalf("echo-only reply should extract to empty, got %q", text)
	}
}

func TestQueryChatTextNon2xx(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.QueryChatText(context.Background(), domain.ChatRequest{Query: "hello"})
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected UpstreamError with status 500, got %v", err)
	}
}

func TestBuildURL(t *testing.T) {
	c := NewClient(config.UpstreamConfig{BaseURL: "http://engine:5678"}, nil)

	cases := []struct{ in, want string }{
		{"/webhook/chat", "http://engine:5678/webhook/chat"},
		{"webhook/chat", "http://engine:5678/webhook/chat"},
		{"https://other.example/hook", "https://other.example/hook"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := c.buildURL(tc.in); got != tc.want {
			t.Errorf("buildURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func multipartFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("content of " + name))
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["files"]
}

func TestUploadFilesParsesValidReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("upstream could not parse multipart: %v", err)
		}
		if n := len(r.MultipartForm.File["files"]); n != 2 {
			t.Errorf("expected 2 forwarded files, got %d", n)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"totalFiles":     2,
			"processedFiles": 1,
			"failedFiles":    1,
			"details": []map[string]string{
				{"name": "a.pdf", "status": "processed"},
				{"name": "b.pdf", "status": "failed", "error": "parse error"},
			},
		})
	}))

	result, err := client.UploadFiles(context.Background(), multipartFiles(t, "a.pdf", "b.pdf"))
	if err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}
	if result.TotalFiles != 2 || result.ProcessedFiles != 1 || result.FailedFiles != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if len(result.Details) != 2 || result.Details[1].Error != "parse error" {
		t.Fatalf("unexpected details %+v", result.Details)
	}
}

func TestUploadFilesSynthesizesResultOnUnshapedReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"accepted"}`))
	}))

	result, err := client.UploadFiles(context.Background(), multipartFiles(t, "a.pdf", "b.pdf", "c.pdf"))
	if err != nil {
		t.Fatalf("UploadFiles: %v", err)
	}
	if result.TotalFiles != 3 || result.ProcessedFiles != 3 || result.FailedFiles != 0 {
		t.Fatalf("expected synthesized all-processed result, got %+v", result)
	}
}

func TestUploadFilesUpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusInternalServerError)
	}))

	_, err := client.UploadFiles(context.Background(), multipartFiles(t, "a.pdf"))
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", upErr.Status)
	}
	if !strings.Contains(upErr.Message, "workflow not active") {
		t.Fatalf("expected upstream text in message, got %q", upErr.Message)
	}
}

func TestGetMetricsRejectsShapeMismatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"summary":{"totalQueries":5},"timeseries":null}`))
	}))

	_, err := client.GetMetrics(context.Background())
	if !errors.Is(err, domain.ErrInvalidUpstreamResponse) {
		t.Fatalf("expected ErrInvalidUpstreamResponse, got %v", err)
	}
}

func TestGetMetricsValidReply(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"summary": {"totalDocs": 3, "totalQueries": 12, "avgLatencyMs": 150.5},
			"timeseries": [{"date": "2026-08-29", "queries": 7, "avgLatencyMs": 120}]
		}`))
	}))

	metrics, err := client.GetMetrics(context.Background())
	if err != nil {
		t.Fatalf("GetMetrics: %v", err)
	}
	if metrics.Summary.TotalQueries != 12 || len(metrics.Timeseries) != 1 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}

func TestGetMetricsTransportErrorIsNotShapeMismatch(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := client.GetMetrics(context.Background())
	if err == nil {
		t.Fatalf("expected an error after upstream shutdown")
	}
	if errors.Is(err, domain.ErrInvalidUpstreamResponse) {
		t.Fatalf("connection failure misclassified as shape mismatch: %v", err)
	}
}

func TestGetMetricsNon2xxIsUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.GetMetrics(context.Background())
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected UpstreamError with status 503, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidUpstreamResponse) {
		t.Fatalf("HTTP 503 misclassified as shape mismatch")
	}
}

func TestGetMetricsUndecodableBodyIsShapeMismatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.GetMetrics(context.Background())
	if !errors.Is(err, domain.ErrInvalidUpstreamResponse) {
		t.Fatalf("expected ErrInvalidUpstreamResponse, got %v", err)
	}
}

func TestGetRetrievalItemsRejectsBadScores(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"c1","snippet":"text","score":1.7}]}`))
	}))

	_, err := client.GetRetrievalItems(context.Background())
	if !errors.Is(err, domain.ErrInvalidUpstreamResponse) {
		t.Fatalf("expected ErrInvalidUpstreamResponse, got %v", err)
	}
}

func TestEraseDocUnconfigured(t *testing.T) {
	c := NewClient(config.UpstreamConfig{BaseURL: "http://engine:5678"}, nil)

	result, err := c.EraseDoc(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("EraseDoc: %v", err)
	}
	if result.OK {
		t.Fatalf("expected not-OK result for unconfigured endpoint")
	}
	if !strings.Contains(result.Message, "erase_doc_path") {
		t.Fatalf("expected config hint in message, got %q", result.Message)
	}
}

func TestEraseDocForwardsFileName(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"message": "gone"})
	}))
	client.cfg.EraseDocPath = srv.URL + "/webhook/erase"

	result, err := client.EraseDoc(context.Background(), "a.pdf")
	if err != nil {
		t.Fatalf("EraseDoc: %v", err)
	}
	if !result.OK || result.Message != "gone" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotBody["fileName"] != "a.pdf" {
		t.Fatalf("expected fileName in payload, got %v", gotBody)
	}
}

func TestEraseDocsUpstreamError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	client.cfg.EraseDocsPath = srv.URL + "/webhook/erase-all"

	result, err := client.EraseDocs(context.Background())
	if err != nil {
		t.Fatalf("EraseDocs: %v", err)
	}
	if result.OK {
		t.Fatalf("expected not-OK result for HTTP 502")
	}
	if !strings.Contains(result.Message, "502") {
		t.Fatalf("expected status in message, got %q", result.Message)
	}
}

func TestForwardStripsHopHeaders(t *testing.T) {
	var gotHeader http.Header
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))

	header := http.Header{}
	header.Set("Host", "dashboard.local")
	header.Set("Content-Length", "999")
	header.Set("X-Custom", "kept")

	reply, err := client.Forward(context.Background(), http.MethodGet, "/webhook/other", "a=1", header, nil)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	defer reply.Body.Close()

	if gotHeader.Get("X-Custom") != "kept" {
		t.Fatalf("expected custom header forwarded")
	}
	if gotHeader.Get("Content-Length") == "999" {
		t.Fatalf("expected content-length stripped")
	}
	if gotHeader.Get("Authorization") != "Bearer secret-key" {
		t.Fatalf("expected auth injected, got %q", gotHeader.Get("Authorization"))
	}
	body, _ := io.ReadAll(reply.Body)
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected relayed body %q", body)
	}
}

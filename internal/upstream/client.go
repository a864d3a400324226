// Package upstream translates typed local requests into HTTP calls against
// the external workflow engine's webhook endpoints.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
	"github.com/firstfamily/ragdash/internal/extract"
	"github.com/firstfamily/ragdash/internal/sse"
	"go.uber.org/zap"
)

// Client calls the workflow engine over HTTP. All calls attach a bearer
// token when an API key is configured.
type Client struct {
	cfg        config.UpstreamConfig
	httpClient *http.Client
	decoder    *sse.Decoder
	logger     *zap.Logger
}

// NewClient constructs an upstream client. The HTTP client carries no
// timeout: the chat relay is bounded only by the upstream and the caller's
// context.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		decoder:    sse.NewDecoder(logger),
		logger:     logger,
	}
}

// buildURL joins a webhook path to the configured base. Paths that are
// already full URLs are used as-is; empty paths yield an empty URL, which
// marks the endpoint unconfigured.
func (c *Client) buildURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.cfg.BaseURL + path
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

// QueryChat forwards a validated chat request to the chat webhook. The
// engine expects exactly {"chatInput": "<user message>"}; everything else in
// the inbound request is advisory. The reply body is returned undecoded so
// the proxy can choose between streaming and buffering.
func (c *Client) QueryChat(ctx context.Context, chat domain.ChatRequest) (*Reply, error) {
	envelope, err := json.Marshal(map[string]string{"chatInput": chat.Query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(c.cfg.ChatPath), bytes.NewReader(envelope))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return &Reply{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// StreamChat issues a chat query and decodes the reply as an SSE event
// stream, dispatching each event to cb.
func (c *Client) StreamChat(ctx context.Context, chat domain.ChatRequest, cb sse.Callbacks) error {
	reply, err := c.QueryChat(ctx, chat)
	if err != nil {
		return err
	}
	if reply.Body == nil {
		return fmt.Errorf("chat reply has no body")
	}
	return c.decoder.Decode(ctx, reply.Body, cb)
}

// QueryChatText issues a chat query, buffers the reply and extracts the
// answer text from the engine's free-form JSON. Non-2xx replies are an
// UpstreamError; an empty or echo-only reply yields an empty string.
func (c *Client) QueryChatText(ctx context.Context, chat domain.ChatRequest) (string, error) {
	reply, err := c.QueryChat(ctx, chat)
	if err != nil {
		return "", err
	}
	body, err := reply.Buffer()
	if err != nil {
		return "", err
	}
	if reply.Status < 200 || reply.Status > 299 {
		return "", &domain.UpstreamError{
			Status:  reply.Status,
			Message: fmt.Sprintf("Chat request failed with status %d", reply.Status),
		}
	}
	return extract.Content(string(body)), nil
}

// UploadFiles re-encodes the submitted files as multipart form data and
// forwards them to the upload webhook. When the engine answers with HTTP
// success but a reply that does not match the UploadResult schema, a
// best-effort result is synthesized assuming every file was processed:
// availability is favored over strict correctness here.
func (c *Client) UploadFiles(ctx context.Context, files []*multipart.FileHeader) (*domain.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, fh := range files {
		part, err := writer.CreateFormFile("files", fh.Filename)
		if err != nil {
			return nil, err
		}
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(c.cfg.UploadPath), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("upload reply",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(text)),
	)

	if result, ok := parseUploadResult(text, c.logger); ok {
		return result, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Upload failed with status %d: %s", resp.StatusCode, truncate(string(text), 500)),
		}
	}

	total := len(files)
	return &domain.UploadResult{
		TotalFiles:     total,
		ProcessedFiles: total,
		FailedFiles:    0,
	}, nil
}

// GetMetrics fetches the dashboard metrics snapshot. A reply that does not
// match the schema is fatal to the call; the numeric dashboard fails closed.
func (c *Client) GetMetrics(ctx context.Context) (*domain.MetricsResponse, error) {
	var metrics domain.MetricsResponse
	if err := c.getJSON(ctx, c.cfg.MetricsPath, &metrics); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := metrics.Validate(); err != nil {
		return nil, fmt.Errorf("metrics: %w: %v", domain.ErrInvalidUpstreamResponse, err)
	}
	return &metrics, nil
}

// GetRetrievalItems fetches the current retrieval index listing.
func (c *Client) GetRetrievalItems(ctx context.Context) (*domain.RetrievalResponse, error) {
	var retrieval domain.RetrievalResponse
	if err := c.getJSON(ctx, c.cfg.RetrievalPath, &retrieval); err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}
	if err := retrieval.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval: %w: %v", domain.ErrInvalidUpstreamResponse, err)
	}
	return &retrieval, nil
}

// getJSON does a typed GET. Transport failures and non-2xx replies keep
// their own identity; only a body that fails to decode is a shape mismatch.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return err
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidUpstreamResponse, err)
	}
	return nil
}

// TriggerWorkflowTest asks the engine to run its self-test workflow.
func (c *Client) TriggerWorkflowTest(ctx context.Context, workflowID string) (Result, error) {
	return c.postResult(ctx, c.buildURL(c.cfg.WorkflowTestPath), map[string]string{"workflowId": workflowID})
}

// EraseDoc asks the engine to remove one document from the index by file
// name. Configuration absence is a normal condition reported as a non-fatal
// result, not an error.
func (c *Client) EraseDoc(ctx context.Context, fileName string) (Result, error) {
	url := c.buildURL(c.cfg.EraseDocPath)
	if url == "" {
		return Result{
			OK:      false,
			Message: "erase-doc endpoint is not set. Configure upstream.erase_doc_path with the webhook path or full URL.",
		}, nil
	}
	return c.postResult(ctx, url, map[string]string{"fileName": fileName})
}

// EraseDocs asks the engine to erase every indexed document.
func (c *Client) EraseDocs(ctx context.Context) (Result, error) {
	url := c.buildURL(c.cfg.EraseDocsPath)
	if url == "" {
		return Result{
			OK:      false,
			Message: "erase-docs endpoint is not set. Configure upstream.erase_docs_path with the webhook path or full URL.",
		}, nil
	}
	return c.postResult(ctx, url, map[string]string{})
}

func (c *Client) postResult(ctx context.Context, url string, payload any) (Result, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{OK: false, Message: fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode)}, nil
	}

	var reply struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err == nil && reply.Message != "" {
		return Result{OK: true, Message: reply.Message}, nil
	}
	return Result{OK: true}, nil
}

// Forward relays an arbitrary request to the upstream base URL, preserving
// method, headers, and body. Host and Content-Length headers are stripped to
// avoid confusing the upstream.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery string, header http.Header, body io.Reader) (*Reply, error) {
	url := c.buildURL(path)
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		lower := strings.ToLower(key)
		if lower == "host" || lower == "content-length" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return &Reply{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// parseUploadResult validates the upload reply against the expected schema.
// The counter fields are decoded through pointers so that an absent field is
// distinguishable from a zero count.
func parseUploadResult(text []byte, logger *zap.Logger) (*domain.UploadResult, bool) {
	var probe struct {
		TotalFiles     *int                      `json:"totalFiles"`
		ProcessedFiles *int                      `json:"processedFiles"`
		FailedFiles    *int                      `json:"failedFiles"`
		Details        []domain.UploadFileDetail `json:"details"`
	}
	if err := json.Unmarshal(text, &probe); err != nil {
		return nil, false
	}
	if probe.TotalFiles == nil || probe.ProcessedFiles == nil || probe.FailedFiles == nil {
		return nil, false
	}
	result := &domain.UploadResult{
		TotalFiles:     *probe.TotalFiles,
		ProcessedFiles: *probe.ProcessedFiles,
		FailedFiles:    *probe.FailedFiles,
		Details:        probe.Details,
	}
	if err := result.Validate(); err != nil {
		logger.Warn("upload reply failed schema validation", zap.Error(err))
		return nil, false
	}
	return result, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package proxy is the inbound HTTP surface that relays browser requests to
// the upstream workflow engine.
package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/firstfamily/ragdash/internal/domain"
	"github.com/firstfamily/ragdash/internal/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// relayBufSize is the read size for the SSE duplex relay.
const relayBufSize = 4096

// Handler dispatches proxied requests by their first path segment. Four
// endpoints get special handling (chat, upload, erase-doc, erase-docs);
// everything else passes through to the upstream untouched.
type Handler struct {
	upstream *upstream.Client
	logger   *zap.Logger
}

// NewHandler creates a new proxy handler
func NewHandler(client *upstream.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{upstream: client, logger: logger}
}

// RegisterRoutes registers the catch-all proxy route
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/*webhook", h.Passthrough)
	r.POST("/*webhook", h.Dispatch)
}

// Dispatch routes POST requests by first path segment.
func (h *Handler) Dispatch(c *gin.Context) {
	switch firstSegment(c.Param("webhook")) {
	case "chat":
		h.Chat(c)
	case "upload":
		h.Upload(c)
	case "erase-doc":
		h.EraseDoc(c)
	case "erase-docs":
		h.EraseDocs(c)
	default:
		h.Passthrough(c)
	}
}

// Chat validates the inbound payload, forwards it to the chat webhook and
// relays the reply. The relay mode follows the inbound Accept header: SSE
// clients get a byte-exact re-stream, everyone else gets the buffered body.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat payload"})
		return
	}

	reply, err := h.upstream.QueryChat(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.relaySSE(c, reply)
		return
	}

	body, err := reply.Buffer()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	contentType := reply.ContentType()
	if contentType == "" {
		contentType = "text/plain"
	}
	c.Data(reply.Status, contentType, body)
}

// relaySSE re-emits the upstream body chunk by chunk, preserving byte-exact
// SSE framing. Once the status line is out a mid-stream failure can only be
// logged and the stream closed cleanly; the client sees a truncated but
// terminated stream, never a hang.
func (h *Handler) relaySSE(c *gin.Context, reply *upstream.Reply) {
	if reply.Body == nil {
		c.String(http.StatusBadGateway, "Upstream SSE had no body")
		return
	}
	defer reply.Body.Close()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	w := c.Writer
	buf := make([]byte, relayBufSize)
	for {
		n, readErr := reply.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				h.logger.Warn("error writing SSE to client", zap.Error(writeErr))
				return
			}
			w.Flush()
		}
		if readErr != nil {
			if readErr != io.EOF {
				h.logger.Warn("error proxying SSE from upstream", zap.Error(readErr))
			}
			return
		}
	}
}

// Upload forwards the inbound multipart form to the upload webhook.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}
	files := form.File["files"]

	result, err := h.upstream.UploadFiles(c.Request.Context(), files)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Upload failed via upstream webhook",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// EraseDoc removes one document from the index by file name.
func (h *Handler) EraseDoc(c *gin.Context) {
	var req struct {
		FileName string `json:"fileName"`
	}
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.FileName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid fileName"})
		return
	}

	result, err := h.upstream.EraseDoc(c.Request.Context(), req.FileName)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !result.OK {
		c.JSON(http.StatusBadGateway, gin.H{"error": result.Message})
		return
	}
	message := result.Message
	if message == "" {
		message = "Document removed from index"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// EraseDocs clears the whole index. No body is required.
func (h *Handler) EraseDocs(c *gin.Context) {
	result, err := h.upstream.EraseDocs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !result.OK {
		c.JSON(http.StatusBadGateway, gin.H{"error": result.Message})
		return
	}
	message := result.Message
	if message == "" {
		message = "Index cleared"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Passthrough rebuilds the upstream URL from the remaining path and query
// string and forwards the request untouched. JSON bodies get a
// parse/re-serialize round trip; everything else is forwarded as raw text.
func (h *Handler) Passthrough(c *gin.Context) {
	path := c.Param("webhook")

	var body io.Reader
	if c.Request.Method != http.MethodGet {
		body = h.forwardableBody(c)
	}

	reply, err := h.upstream.Forward(
		c.Request.Context(),
		c.Request.Method,
		path,
		c.Request.URL.RawQuery,
		c.Request.Header,
		body,
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer reply.Body.Close()

	// content-type-only header projection
	if contentType := reply.ContentType(); contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Status(reply.Status)
	if _, err := io.Copy(c.Writer, reply.Body); err != nil {
		h.logger.Warn("error streaming passthrough body", zap.Error(err))
	}
}

// forwardableBody selects a forwarding strategy by inbound content type.
func (h *Handler) forwardableBody(c *gin.Context) io.Reader {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		return nil
	}

	contentType := c.GetHeader("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil
		}
		reencoded, err := json.Marshal(parsed)
		if err != nil {
			return nil
		}
		return bytes.NewReader(reencoded)
	}
	return bytes.NewReader(raw)
}

// firstSegment extracts the leading path segment of a wildcard match.
func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i != -1 {
		return path[:i]
	}
	return path
}

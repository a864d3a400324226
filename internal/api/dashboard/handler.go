package dashboard

import (
	"net/http"

	"github.com/firstfamily/ragdash/internal/upstream"
	"github.com/gin-gonic/gin"
)

// Handler serves the typed read endpoints backing the metrics and retrieval
// pages. Shape mismatches from the upstream are fatal here: a numeric
// dashboard rendered from guessed data is worse than an error.
type Handler struct {
	upstream *upstream.Client
}

// NewHandler creates a new dashboard handler
func NewHandler(client *upstream.Client) *Handler {
	return &Handler{upstream: client}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/metrics", h.GetMetrics)
	r.GET("/retrieval", h.GetRetrieval)
	r.POST("/workflow-test", h.TriggerWorkflowTest)
}

// GetMetrics returns the upstream metrics snapshot.
func (h *Handler) GetMetrics(c *gin.Context) {
	metrics, err := h.upstream.GetMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetRetrieval returns the indexed passage listing.
func (h *Handler) GetRetrieval(c *gin.Context) {
	retrieval, err := h.upstream.GetRetrievalItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, retrieval)
}

// TriggerWorkflowTest asks the upstream engine to run its self-test.
func (h *Handler) TriggerWorkflowTest(c *gin.Context) {
	var req struct {
		WorkflowID string `json:"workflowId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.upstream.TriggerWorkflowTest(c.Request.Context(), req.WorkflowID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

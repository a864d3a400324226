package research

import (
	"net/http"

	"github.com/firstfamily/ragdash/internal/service"
	"github.com/gin-gonic/gin"
)

// Handler serves the web-scrape/research endpoint.
type Handler struct {
	scrapeService *service.ScrapeService
}

// NewHandler creates a new research handler
func NewHandler(scrapeService *service.ScrapeService) *Handler {
	return &Handler{scrapeService: scrapeService}
}

// RegisterRoutes registers research routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Scrape)
}

// Scrape summarizes a URL or answers a research query. Failures are
// structured inside the result body, so the HTTP status is always 200 for a
// well-formed request.
func (h *Handler) Scrape(c *gin.Context) {
	var req struct {
		Input string `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.scrapeService.Scrape(c.Request.Context(), req.Input)
	c.JSON(http.StatusOK, result)
}

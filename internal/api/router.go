package api

import (
	"github.com/firstfamily/ragdash/internal/api/dashboard"
	"github.com/firstfamily/ragdash/internal/api/middleware"
	"github.com/firstfamily/ragdash/internal/api/proxy"
	"github.com/firstfamily/ragdash/internal/api/research"
	"github.com/firstfamily/ragdash/internal/service"
	"github.com/firstfamily/ragdash/internal/upstream"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter sets up the Gin router
func SetupRouter(
	upstreamClient *upstream.Client,
	scrapeService *service.ScrapeService,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Dashboard UI shell
	SetupStaticRoutes(r)

	// Proxy relay to the upstream workflow engine
	proxyHandler := proxy.NewHandler(upstreamClient, logger)
	proxyGroup := r.Group("/api/proxy")
	proxyHandler.RegisterRoutes(proxyGroup)

	// Typed dashboard reads
	dashboardHandler := dashboard.NewHandler(upstreamClient)
	dashboardGroup := r.Group("/api/dashboard")
	dashboardHandler.RegisterRoutes(dashboardGroup)

	// Web scrape / research
	researchHandler := research.NewHandler(scrapeService)
	researchGroup := r.Group("/api/research")
	researchHandler.RegisterRoutes(researchGroup)

	return r
}

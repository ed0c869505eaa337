package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricetag/api/handler"
	"github.com/use-agent/pricetag/api/middleware"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  Auth (if enabled) → RateLimit
//
// The liveness and health endpoints sit outside auth so probes always work.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.GET("/", handler.Root())
	r.GET("/api/v1/health", handler.Health(sc, startTime))

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(sc))
	protected.POST("/api/v1/scrape", handler.ScrapeV1(sc))

	return r
}

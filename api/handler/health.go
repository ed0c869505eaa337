package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricetag/models"
	"github.com/use-agent/pricetag/scraper"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Root returns a handler for GET /, a plain-text liveness probe.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "pricetag API is running!")
	}
}

// Health returns a handler for GET /api/v1/health.
func Health(sc *scraper.Scraper, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "healthy",
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Strategy: sc.Strategy(),
			InFlight: sc.InFlight(),
			Version:  Version,
		})
	}
}

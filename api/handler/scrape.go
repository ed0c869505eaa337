package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricetag/models"
	"github.com/use-agent/pricetag/scraper"
)

const (
	msgURLRequired = "URL is required in the request body."
	msgURLInvalid  = "URL must be an absolute URL."
)

// Scrape returns a handler for POST /scrape.
//
// Response shapes:
//
//	400 {"error": "URL is required in the request body."}
//	500 {"error": "Scraping failed: <cause>"}
//	200 {"productName": ..., "productPrice": ..., "error": null}
func Scrape(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		result := sc.Scrape(c.Request.Context(), req.URL)
		if result.Failed() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Scraping failed: " + *result.Error,
			})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// ScrapeV1 returns a handler for POST /api/v1/scrape. Unlike Scrape it always
// answers with the full ScrapeResult and maps the error code to a status.
func ScrapeV1(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		result := sc.Scrape(c.Request.Context(), req.URL)
		if result.Failed() {
			c.JSON(mapErrorToStatus(result.ErrorCode), result)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// bindRequest parses and validates the JSON body, writing a 400 on failure.
func bindRequest(c *gin.Context) (*models.ScrapeRequest, bool) {
	var req models.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := msgURLRequired
		if req.URL != "" {
			msg = msgURLInvalid
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return nil, false
	}
	return &req, true
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetch, models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

package models

// ScrapeRequest is the payload for POST /scrape and POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the product page to scrape. Required, must be absolute.
	URL string `json:"url" binding:"required,url"`
}

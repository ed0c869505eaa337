package engine

import (
	"context"
	"errors"

	"github.com/use-agent/pricetag/models"
)

// Engine is the interface that all page-acquisition strategies implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the page HTML for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL            string
	UserAgent      string
	AcceptLanguage string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string

	// RenderAttempted marks a direct result kept after the rendered
	// strategy already ran and failed for the same request.
	RenderAttempted bool
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes. Errors that are already
// ScrapeErrors pass through untouched.
func categorizeError(err error, msg, code string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}

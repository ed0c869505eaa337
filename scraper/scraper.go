package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/engine"
	"github.com/use-agent/pricetag/extractor"
	"github.com/use-agent/pricetag/models"
)

// Scraper runs the acquire → extract pipeline for one URL at a time.
// It keeps no per-request state and is safe for concurrent use.
type Scraper struct {
	dispatcher *engine.Dispatcher
	extractor  *extractor.Extractor
	fetchCfg   config.FetchConfig
	inFlight   atomic.Int32
}

// NewScraper wires a dispatcher and an extractor together.
func NewScraper(d *engine.Dispatcher, ex *extractor.Extractor, fetchCfg config.FetchConfig) *Scraper {
	return &Scraper{
		dispatcher: d,
		extractor:  ex,
		fetchCfg:   fetchCfg,
	}
}

// InFlight returns the number of scrapes currently running.
func (s *Scraper) InFlight() int {
	return int(s.inFlight.Load())
}

// Strategy returns the configured acquisition strategy.
func (s *Scraper) Strategy() string {
	return s.dispatcher.Strategy()
}

// Scrape fetches rawURL and extracts the product name and price.
//
// The returned result always exists. Error is set only when no HTML could be
// acquired; a page where no rule matched yields a result with both fields
// nil and no error.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) *models.ScrapeResult {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	req := &engine.FetchRequest{
		URL:            rawURL,
		UserAgent:      s.fetchCfg.UserAgent,
		AcceptLanguage: s.fetchCfg.AcceptLanguage,
	}

	page, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		se := asScrapeError(err)
		msg := se.Summary()
		slog.Warn("acquisition failed", "url", rawURL, "error", err)
		return &models.ScrapeResult{Error: &msg, ErrorCode: se.Code}
	}

	fields := s.extractor.Extract(page.HTML)
	if fields.Empty() {
		if rendered, ok := s.dispatcher.Escalate(ctx, req, page); ok {
			page = rendered
			fields = s.extractor.Extract(page.HTML)
		}
	}

	slog.Info("scrape finished",
		"url", rawURL,
		"engine", page.EngineName,
		"nameRule", fields.NameRule,
		"priceRule", fields.PriceRule,
	)

	return &models.ScrapeResult{
		ProductName:  models.StringPtr(fields.Name),
		ProductPrice: models.StringPtr(fields.Price),
		Engine:       page.EngineName,
	}
}

func asScrapeError(err error) *models.ScrapeError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), nil)
}

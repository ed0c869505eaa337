package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/engine"
	"github.com/use-agent/pricetag/extractor"
	"github.com/use-agent/pricetag/models"
	"github.com/use-agent/pricetag/scraper"
)

const productPage = `<html><body>
	<h1 class="pdp-mod-product-title">Wireless Mouse</h1>
	<span class="pdp-price_type_normal">₫99,000</span>
</body></html>`

func newTestRouter(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()

	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Fetch.Strategy = config.StrategyHTTP
	cfg.Auth.Enabled = false
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}

	launch := func(context.Context) (engine.Browser, error) {
		t.Fatal("browser must not be launched with the http strategy")
		return nil, nil
	}
	d := engine.NewDispatcher(cfg.Fetch.Strategy,
		engine.NewHTTPEngine(5*time.Second, ""),
		engine.NewRodEngine(launch, time.Second),
	)
	sc := scraper.NewScraper(d, extractor.Default(), cfg.Fetch)

	return NewRouter(sc, cfg, time.Now())
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(productPage))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func post(h http.Handler, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestScrape_Success(t *testing.T) {
	ts := upstream(t)
	h := newTestRouter(t, nil)

	w := post(h, "/scrape", `{"url":"`+ts.URL+`/p/1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Wireless Mouse", got["productName"])
	assert.Equal(t, "99000", got["productPrice"])
	assert.Nil(t, got["error"])
	assert.Contains(t, got, "error")
}

func TestScrape_MissingURL(t *testing.T) {
	h := newTestRouter(t, nil)

	for _, body := range []string{`{}`, `{"url":""}`, `not json`} {
		w := post(h, "/scrape", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"URL is required in the request body."}`, w.Body.String())
	}
}

func TestScrape_InvalidURL(t *testing.T) {
	h := newTestRouter(t, nil)

	w := post(h, "/scrape", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"URL must be an absolute URL."}`, w.Body.String())
}

func TestScrape_UpstreamFailure(t *testing.T) {
	ts := upstream(t)
	h := newTestRouter(t, nil)

	w := post(h, "/scrape", `{"url":"`+ts.URL+`/missing"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Scraping failed: Failed to fetch page: 404 Not Found"}`, w.Body.String())
}

func TestScrapeV1_UpstreamFailure(t *testing.T) {
	ts := upstream(t)
	h := newTestRouter(t, nil)

	w := post(h, "/api/v1/scrape", `{"url":"`+ts.URL+`/missing"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var got models.ScrapeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "404")
	assert.Equal(t, models.ErrCodeFetch, got.ErrorCode)
	assert.Nil(t, got.ProductName)
	assert.Nil(t, got.ProductPrice)
}

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pricetag API is running!", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, config.StrategyHTTP, health.Strategy)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/scrape", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-API-Key")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-api-key")
}

func TestCORSSimpleRequest(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://dashboard.example")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuth(t *testing.T) {
	ts := upstream(t)
	h := newTestRouter(t, func(c *config.Config) {
		c.Auth.Enabled = true
		c.Auth.APIKeys = []string{"secret"}
	})
	body := `{"url":"` + ts.URL + `/p/1"}`

	assert.Equal(t, http.StatusUnauthorized, post(h, "/scrape", body).Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, "/scrape", body, "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, post(h, "/scrape", body, "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusOK, post(h, "/scrape", body, "Authorization", "Bearer secret").Code)
}

func TestRateLimit(t *testing.T) {
	ts := upstream(t)
	h := newTestRouter(t, func(c *config.Config) {
		c.RateLimit.RequestsPerSecond = 0.001
		c.RateLimit.Burst = 1
	})
	body := `{"url":"` + ts.URL + `/p/1"}`

	assert.Equal(t, http.StatusOK, post(h, "/scrape", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, "/scrape", body).Code)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pricetag/config"
)

// scrapeRequest mirrors the pricetag API request model.
type scrapeRequest struct {
	URL string `json:"url"`
}

// scrapeResponse mirrors the pricetag API response model.
type scrapeResponse struct {
	ProductName  *string `json:"productName"`
	ProductPrice *string `json:"productPrice"`
	Error        *string `json:"error"`
	ErrorCode    string  `json:"errorCode"`
	Engine       string  `json:"engine"`
}

func main() {
	apiURL := os.Getenv("PRICETAG_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:10000"
	}
	apiKey := os.Getenv("PRICETAG_API_KEY")

	s := server.NewMCPServer(
		"pricetag",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeProductTool := mcp.NewTool("scrape_product",
		mcp.WithDescription("Fetch an e-commerce product page and return its product name and numeric price (digits only). Falls back to a headless browser when the page needs JavaScript."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute URL of the product page"),
		),
	)
	s.AddTool(scrapeProductTool, handleScrapeProduct(apiURL, apiKey, clientTimeout(config.Load().Fetch)))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// clientTimeout outlasts the slowest scrape the server may run with the
// same PRICETAG_* settings, so a slow success is not reported as a
// transport error.
func clientTimeout(f config.FetchConfig) time.Duration {
	return f.MaxScrapeDuration() + 15*time.Second
}

func handleScrapeProduct(apiURL, apiKey string, timeout time.Duration) server.ToolHandlerFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		body, err := json.Marshal(scrapeRequest{URL: url})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response (HTTP %d): %v", resp.StatusCode, err)), nil
		}

		if scrapeResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", scrapeResp.ErrorCode, *scrapeResp.Error)), nil
		}

		return mcp.NewToolResultText(formatResult(url, &scrapeResp)), nil
	}
}

// formatResult renders a result as short "key: value" lines. Absent fields
// are spelled out so the caller can tell them apart from empty strings.
func formatResult(url string, r *scrapeResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "Name: %s\n", orNotFound(r.ProductName))
	fmt.Fprintf(&b, "Price: %s\n", orNotFound(r.ProductPrice))
	if r.Engine != "" {
		fmt.Fprintf(&b, "Fetched via: %s\n", r.Engine)
	}
	return b.String()
}

func orNotFound(s *string) string {
	if s == nil {
		return "(not found)"
	}
	return *s
}

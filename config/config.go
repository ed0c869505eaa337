package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Strategy names accepted by FetchConfig.Strategy.
const (
	StrategyAuto    = "auto"
	StrategyHTTP    = "http"
	StrategyBrowser = "browser"
)

// DefaultUserAgent is a current desktop Chrome UA string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetch     FetchConfig
	Browser   BrowserConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 10000
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls page acquisition.
type FetchConfig struct {
	// Strategy selects the acquisition strategy: "auto", "http" or "browser".
	// "auto" fetches directly and renders only when the direct HTML is unusable.
	Strategy string // default: "auto"

	// HTTPTimeout bounds the direct fetch.
	HTTPTimeout time.Duration // default: 30s

	// RenderTimeout bounds browser launch + navigation + network idle.
	RenderTimeout time.Duration // default: 60s

	// UserAgent is sent by both strategies.
	UserAgent string

	// AcceptLanguage is sent by both strategies.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Proxy is an optional http(s) proxy URL for both strategies.
	Proxy string
}

// MaxScrapeDuration is the longest one scrape can take under Strategy:
// auto runs the direct fetch and at most one render back to back.
func (f FetchConfig) MaxScrapeDuration() time.Duration {
	switch f.Strategy {
	case StrategyHTTP:
		return f.HTTPTimeout
	case StrategyBrowser:
		return f.RenderTimeout
	default:
		return f.HTTPTimeout + f.RenderTimeout
	}
}

// BrowserConfig controls the per-request Rod browser.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth patches navigator.webdriver and friends before navigation.
	Stealth bool // default: true

	// IdleWindow is how long the network must stay quiet to count as idle.
	IdleWindow time.Duration // default: 500ms

	// BlockedURLs are URL patterns the browser never loads.
	// default: images, fonts and media by extension.
	BlockedURLs []string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or client IP.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICETAG_HOST", "0.0.0.0"),
			Port: envIntOr("PORT", envIntOr("PRICETAG_PORT", 10000)),
			Mode: envOr("PRICETAG_MODE", "release"),
		},
		Fetch: FetchConfig{
			Strategy:       envStrategyOr("PRICETAG_STRATEGY", StrategyAuto),
			HTTPTimeout:    envDurationOr("PRICETAG_HTTP_TIMEOUT", 30*time.Second),
			RenderTimeout:  envDurationOr("PRICETAG_RENDER_TIMEOUT", 60*time.Second),
			UserAgent:      envOr("PRICETAG_USER_AGENT", DefaultUserAgent),
			AcceptLanguage: envOr("PRICETAG_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Proxy:          os.Getenv("PRICETAG_PROXY"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("PRICETAG_HEADLESS", true),
			NoSandbox:  envBoolOr("PRICETAG_NO_SANDBOX", false),
			BrowserBin: os.Getenv("PRICETAG_BROWSER_BIN"),
			Stealth:    envBoolOr("PRICETAG_STEALTH", true),
			IdleWindow: envDurationOr("PRICETAG_IDLE_WINDOW", 500*time.Millisecond),
			BlockedURLs: envSliceOr("PRICETAG_BLOCKED_URLS", []string{
				"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
				"*.woff", "*.woff2", "*.ttf", "*.mp4",
			}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICETAG_AUTH_ENABLED", false),
			APIKeys: envSliceOr("PRICETAG_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICETAG_RATE_RPS", 2.0),
			Burst:             envIntOr("PRICETAG_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("PRICETAG_LOG_LEVEL", "info"),
			Format: envOr("PRICETAG_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envStrategyOr(key, fallback string) string {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv(key))); v {
	case StrategyAuto, StrategyHTTP, StrategyBrowser:
		return v
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

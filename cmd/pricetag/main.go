package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pricetag/api"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/engine"
	"github.com/use-agent/pricetag/extractor"
	"github.com/use-agent/pricetag/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("pricetag starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"strategy", cfg.Fetch.Strategy,
	)

	// ── 3. Acquisition engines ──────────────────────────────────────
	// No browser is started here: the rendered engine launches one per
	// request and tears it down before the request returns.
	httpEngine := engine.NewHTTPEngine(cfg.Fetch.HTTPTimeout, cfg.Fetch.Proxy)
	rodEngine := engine.NewRodEngine(
		engine.NewRodLauncher(cfg.Browser, cfg.Fetch.Proxy),
		cfg.Fetch.RenderTimeout,
	)
	dispatcher := engine.NewDispatcher(cfg.Fetch.Strategy, httpEngine, rodEngine)

	// ── 4. Scraper ──────────────────────────────────────────────────
	sc := scraper.NewScraper(dispatcher, extractor.Default(), cfg.Fetch)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(sc, cfg, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr, "scrape", fmt.Sprintf("http://localhost:%d/scrape", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight renders hold a browser each; let the slowest possible scrape
	// finish so its teardown runs instead of being cut off.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.MaxScrapeDuration()+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err, "inFlight", sc.InFlight())
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("pricetag stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"github.com/use-agent/pricetag/config"
	"github.com/use-agent/pricetag/engine"
	"github.com/use-agent/pricetag/extractor"
	"github.com/use-agent/pricetag/models"
	"github.com/use-agent/pricetag/scraper"
)

// Build information, overridden by ldflags.
var version = "development"

func main() {
	app := &cli.App{
		Name:    "pricetag-cli",
		Usage:   "Extract a product name and price from a product page",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "scrape",
				Usage:     "Scrape one product page",
				ArgsUsage: "<product_url>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Value:   config.StrategyAuto,
						Usage:   "Acquisition strategy (`auto`, `http` or `browser`)",
					},
					&cli.DurationFlag{
						Name:  "render-timeout",
						Value: 60 * time.Second,
						Usage: "Upper bound for the headless browser",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the raw result as JSON",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Log acquisition details to stderr",
					},
				},
				Action: runScrape,
			},
			{
				Name:  "rules",
				Usage: "List the selector rules in evaluation order",
				Action: func(c *cli.Context) error {
					printRules(c.App.Writer)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func runScrape(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one product URL is required", 2)
	}
	targetURL := c.Args().First()

	strategy := c.String("strategy")
	switch strategy {
	case config.StrategyAuto, config.StrategyHTTP, config.StrategyBrowser:
	default:
		return cli.Exit(fmt.Sprintf("invalid strategy %q", strategy), 2)
	}

	level := slog.LevelError
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Load()
	cfg.Fetch.Strategy = strategy
	cfg.Fetch.RenderTimeout = c.Duration("render-timeout")

	d := engine.NewDispatcher(strategy,
		engine.NewHTTPEngine(cfg.Fetch.HTTPTimeout, cfg.Fetch.Proxy),
		engine.NewRodEngine(engine.NewRodLauncher(cfg.Browser, cfg.Fetch.Proxy), cfg.Fetch.RenderTimeout),
	)
	sc := scraper.NewScraper(d, extractor.Default(), cfg.Fetch)

	result := sc.Scrape(context.Background(), targetURL)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(c.App.Writer, targetURL, result)
	}

	if result.Failed() {
		return cli.Exit("", 1)
	}
	return nil
}

func printResult(w io.Writer, url string, r *models.ScrapeResult) {
	label := color.New(color.FgWhite, color.Bold)
	missing := color.New(color.FgYellow)

	label.Fprint(w, "URL:   ")
	fmt.Fprintln(w, url)

	if r.Failed() {
		label.Fprint(w, "Error: ")
		color.New(color.FgRed).Fprintln(w, *r.Error)
		return
	}

	label.Fprint(w, "Name:  ")
	if r.ProductName != nil {
		color.New(color.FgGreen).Fprintln(w, *r.ProductName)
	} else {
		missing.Fprintln(w, "(not found)")
	}

	label.Fprint(w, "Price: ")
	if r.ProductPrice != nil {
		color.New(color.FgCyan).Fprintln(w, *r.ProductPrice)
	} else {
		missing.Fprintln(w, "(not found)")
	}

	if r.Engine != "" {
		label.Fprint(w, "Via:   ")
		fmt.Fprintln(w, r.Engine)
	}
}

func printRules(w io.Writer) {
	section := color.New(color.FgYellow, color.Bold)
	for _, group := range []struct {
		title string
		rules []extractor.SelectorRule
	}{
		{"name", extractor.NameRules},
		{"price", extractor.PriceRules},
	} {
		section.Fprintln(w, group.title)
		for i, r := range group.rules {
			fmt.Fprintf(w, "  %d. %-24s %s", i+1, r.Mode, r.Selector)
			if r.Attr != "" {
				fmt.Fprintf(w, " @%s", r.Attr)
			}
			fmt.Fprintln(w)
		}
	}
}

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/pricetag/config"
)

// Dispatcher chooses the acquisition strategy for a request.
//
// With strategy "auto" the direct engine always runs first and the rendered
// engine runs at most once per request, only when the direct HTML is
// unusable (Dispatch) or yielded no fields (Escalate). A failed direct fetch
// is returned as-is; there are no retries.
type Dispatcher struct {
	strategy string
	direct   Engine
	rendered Engine
}

// NewDispatcher creates a Dispatcher. rendered may be nil when strategy is
// "http"; direct may be nil when strategy is "browser".
func NewDispatcher(strategy string, direct, rendered Engine) *Dispatcher {
	return &Dispatcher{
		strategy: strategy,
		direct:   direct,
		rendered: rendered,
	}
}

// Strategy returns the configured strategy name.
func (d *Dispatcher) Strategy() string { return d.strategy }

// Dispatch acquires the page HTML for req.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	switch d.strategy {
	case config.StrategyHTTP:
		return d.fetch(ctx, d.direct, req)
	case config.StrategyBrowser:
		return d.fetch(ctx, d.rendered, req)
	}

	result, err := d.fetch(ctx, d.direct, req)
	if err != nil {
		return nil, err
	}

	if reason := unusableReason(result.HTML); reason != "" {
		slog.Info("direct HTML unusable, rendering", "url", req.URL, "reason", reason)
		if rendered, ok := d.render(ctx, req); ok {
			return rendered, nil
		}
		result.RenderAttempted = true
	}
	return result, nil
}

// Escalate renders the page after a direct fetch whose HTML produced no
// fields. It returns ok=false when escalation does not apply (strategy is
// not "auto", prev came from the browser or a render was already tried) or
// the render failed.
func (d *Dispatcher) Escalate(ctx context.Context, req *FetchRequest, prev *FetchResult) (*FetchResult, bool) {
	if d.strategy != config.StrategyAuto || d.rendered == nil {
		return nil, false
	}
	if prev == nil || prev.RenderAttempted || prev.EngineName == d.rendered.Name() {
		return nil, false
	}
	slog.Info("no fields in direct HTML, rendering", "url", req.URL)
	return d.render(ctx, req)
}

func (d *Dispatcher) render(ctx context.Context, req *FetchRequest) (*FetchResult, bool) {
	if d.rendered == nil {
		return nil, false
	}
	result, err := d.rendered.Fetch(ctx, req)
	if err != nil {
		slog.Warn("render fallback failed, keeping direct HTML", "url", req.URL, "error", err)
		return nil, false
	}
	return result, true
}

func (d *Dispatcher) fetch(ctx context.Context, e Engine, req *FetchRequest) (*FetchResult, error) {
	if e == nil {
		return nil, fmt.Errorf("dispatcher: no engine configured for strategy %q", d.strategy)
	}
	slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
	return e.Fetch(ctx, req)
}

package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/pricetag/models"
)

// Browser is a headless browser owned by exactly one request.
// Close must release every resource (process, profile dir) and is called
// exactly once by RodEngine, whatever happened before it.
type Browser interface {
	// Render navigates to req.URL, waits for network idle and returns
	// the rendered document.
	Render(ctx context.Context, req *FetchRequest) (*FetchResult, error)

	Close() error
}

// LaunchFunc starts a fresh Browser. When it fails it must not leave a
// process behind; when it succeeds the caller owns the returned Browser.
type LaunchFunc func(ctx context.Context) (Browser, error)

// RodEngine is the rendered strategy. Every Fetch launches its own browser
// and tears it down before returning, so nothing is shared between requests.
type RodEngine struct {
	launch  LaunchFunc
	timeout time.Duration
}

// NewRodEngine creates a RodEngine.
//   - launch: starts one isolated browser (see NewRodLauncher).
//   - timeout: bound on launch + navigation + network idle; 0 means none.
func NewRodEngine(launch LaunchFunc, timeout time.Duration) *RodEngine {
	return &RodEngine{launch: launch, timeout: timeout}
}

func (e *RodEngine) Name() string { return "browser" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	b, err := e.launch(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, categorizeError(ctxErr, "timed out launching browser", models.ErrCodeTimeout)
		}
		return nil, categorizeError(err, "failed to launch browser", models.ErrCodeBrowserLaunch)
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			slog.Warn("browser teardown reported an error", "url", req.URL, "error", closeErr)
		}
	}()

	result, err := b.Render(ctx, req)
	if err != nil {
		return nil, categorizeError(err, "failed to render page", models.ErrCodeNavigation)
	}

	result.EngineName = e.Name()
	return result, nil
}

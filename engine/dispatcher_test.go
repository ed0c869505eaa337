package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricetag/config"
)

// stubEngine returns a canned result and records how often it ran.
type stubEngine struct {
	name  string
	html  string
	err   error
	calls int
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Fetch(context.Context, *FetchRequest) (*FetchResult, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &FetchResult{HTML: e.html, EngineName: e.name}, nil
}

// contentPage is long enough to pass the visible-text heuristic.
var contentPage = "<html><body><h1>Product</h1><p>" + strings.Repeat("Great product description. ", 20) + "</p></body></html>"

func TestDispatcher_HTTPStrategyNeverRenders(t *testing.T) {
	direct := &stubEngine{name: "http", html: `<div id="root"></div>`}
	rendered := &stubEngine{name: "browser", html: contentPage}

	d := NewDispatcher(config.StrategyHTTP, direct, rendered)
	res, err := d.Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.NoError(t, err)

	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, 0, rendered.calls)

	_, ok := d.Escalate(context.Background(), newTestRequest("https://shop.example"), res)
	assert.False(t, ok)
	assert.Equal(t, 0, rendered.calls)
}

func TestDispatcher_BrowserStrategySkipsDirect(t *testing.T) {
	direct := &stubEngine{name: "http", html: contentPage}
	rendered := &stubEngine{name: "browser", html: contentPage}

	res, err := NewDispatcher(config.StrategyBrowser, direct, rendered).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.NoError(t, err)

	assert.Equal(t, "browser", res.EngineName)
	assert.Equal(t, 0, direct.calls)
	assert.Equal(t, 1, rendered.calls)
}

func TestDispatcher_AutoKeepsUsableDirectHTML(t *testing.T) {
	direct := &stubEngine{name: "http", html: contentPage}
	rendered := &stubEngine{name: "browser", html: contentPage}

	res, err := NewDispatcher(config.StrategyAuto, direct, rendered).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.NoError(t, err)

	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, 0, rendered.calls)
}

func TestDispatcher_AutoRendersUnusableDirectHTML(t *testing.T) {
	direct := &stubEngine{name: "http", html: `<html><body><div id="root"></div></body></html>`}
	rendered := &stubEngine{name: "browser", html: contentPage}

	res, err := NewDispatcher(config.StrategyAuto, direct, rendered).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.NoError(t, err)

	assert.Equal(t, "browser", res.EngineName)
	assert.Equal(t, 1, rendered.calls)
}

func TestDispatcher_AutoRenderFailureKeepsDirectHTML(t *testing.T) {
	direct := &stubEngine{name: "http", html: `<html><body>x5secdata</body></html>`}
	rendered := &stubEngine{name: "browser", err: errors.New("launch failed")}

	res, err := NewDispatcher(config.StrategyAuto, direct, rendered).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.NoError(t, err)

	assert.Equal(t, "http", res.EngineName)
	assert.True(t, res.RenderAttempted)
	assert.Equal(t, 1, rendered.calls)
}

func TestDispatcher_EscalateSkipsAfterFailedRender(t *testing.T) {
	direct := &stubEngine{name: "http", html: `<html><body><div id="root"></div></body></html>`}
	rendered := &stubEngine{name: "browser", err: errors.New("launch failed")}
	d := NewDispatcher(config.StrategyAuto, direct, rendered)
	req := newTestRequest("https://shop.example")

	res, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)

	_, ok := d.Escalate(context.Background(), req, res)
	assert.False(t, ok)
	assert.Equal(t, 1, rendered.calls)
}

func TestDispatcher_AutoDirectFailureIsFinal(t *testing.T) {
	direct := &stubEngine{name: "http", err: errors.New("Failed to fetch page: 404 Not Found")}
	rendered := &stubEngine{name: "browser", html: contentPage}

	_, err := NewDispatcher(config.StrategyAuto, direct, rendered).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.Error(t, err)

	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 1, direct.calls)
	assert.Equal(t, 0, rendered.calls)
}

func TestDispatcher_Escalate(t *testing.T) {
	rendered := &stubEngine{name: "browser", html: contentPage}
	d := NewDispatcher(config.StrategyAuto, &stubEngine{name: "http"}, rendered)
	req := newTestRequest("https://shop.example")

	res, ok := d.Escalate(context.Background(), req, &FetchResult{EngineName: "http"})
	require.True(t, ok)
	assert.Equal(t, "browser", res.EngineName)

	_, ok = d.Escalate(context.Background(), req, res)
	assert.False(t, ok, "a rendered result is never rendered again")
	assert.Equal(t, 1, rendered.calls)
}

func TestDispatcher_MissingEngine(t *testing.T) {
	_, err := NewDispatcher(config.StrategyBrowser, &stubEngine{name: "http"}, nil).
		Dispatch(context.Background(), newTestRequest("https://shop.example"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no engine configured")
}

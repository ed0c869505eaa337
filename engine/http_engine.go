package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/pricetag/models"
)

// maxBody caps how much of a response body is read (10 MB).
const maxBody = 10 << 20

// HTTPEngine is the direct strategy: one GET with browser-like headers.
// It is the cheapest option and works whenever the site serves full
// markup to plain clients.
type HTTPEngine struct {
	client  *http.Client
	timeout time.Duration
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection; nil
// when utls cannot build the Chrome preset.
var chromeH1Spec *tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		slog.Warn("chrome TLS fingerprint unavailable, using Go defaults", "error", err)
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection, so the
	// server must never be offered it.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = &spec
}

// newUClient wraps conn in a utls client. Without a spec it falls back to
// the plain Go ClientHello, still limited to http/1.1.
func newUClient(conn net.Conn, host string, spec *tls.ClientHelloSpec) (*tls.UConn, error) {
	if spec == nil {
		return tls.UClient(conn, &tls.Config{ServerName: host, NextProtos: []string{"http/1.1"}}, tls.HelloGolang), nil
	}
	uconn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := uconn.ApplyPreset(spec); err != nil {
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	return uconn, nil
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
// proxy, if non-empty, must be an http(s) proxy URL.
func NewHTTPEngine(timeout time.Duration, proxy string) *HTTPEngine {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn, err := newUClient(conn, host, chromeH1Spec)
			if err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &HTTPEngine{
		timeout: timeout,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch issues the GET. Any status outside 2xx is a FETCH_FAILED error whose
// message carries the numeric status and its text, e.g. "404 Not Found".
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetch, "failed to build request", err)
	}

	httpReq.Header.Set("User-Agent", req.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9")
	httpReq.Header.Set("Accept-Language", req.AcceptLanguage)
	httpReq.Header.Set("Accept-Encoding", "identity")
	httpReq.Header.Set("Connection", "keep-alive")
	httpReq.Header.Set("Upgrade-Insecure-Requests", "1")
	httpReq.Header.Set("Cache-Control", "max-age=0")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, categorizeError(err, "Failed to fetch page", models.ErrCodeFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewScrapeError(models.ErrCodeFetch, statusMessage(resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, categorizeError(err, "failed to read response body", models.ErrCodeFetch)
	}

	bodyStr := string(body)
	return &FetchResult{
		HTML:       bodyStr,
		Title:      extractTitle(bodyStr),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// statusMessage formats a non-success status, e.g.
// "Failed to fetch page: 404 Not Found". Clients match on this text.
func statusMessage(code int) string {
	return fmt.Sprintf("Failed to fetch page: %d %s", code, http.StatusText(code))
}

// Package scraper downloads reference pages and pulls readable article
// text out of them.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/scribe/internal/bypass"
	"github.com/FranksOps/scribe/internal/fingerprint"
	"github.com/FranksOps/scribe/internal/metrics"
	"github.com/FranksOps/scribe/pkg/httpclient"
	"github.com/FranksOps/scribe/pkg/proxy"
	"github.com/FranksOps/scribe/pkg/ratelimit"
	"github.com/FranksOps/scribe/pkg/useragent"
	"github.com/google/uuid"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

const defaultMaxBody = 10 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// MaxBodyBytes truncates larger bodies. Zero means 10 MiB.
	MaxBodyBytes       int64
	UAPool             *useragent.Pool
	Fingerprint        fingerprint.Profile
	InsecureSkipVerify bool
	ProxyPool          *proxy.Pool
	Limiter            *ratelimit.Limiter
	Logger             *slog.Logger
}

// Page is the captured outcome of one GET.
type Page struct {
	ID         string
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	FetchedAt  time.Time
	// Error holds the transport failure, if any.
	Error string
	// BlockedBy names the bot protection that challenged the request.
	BlockedBy string
}

// Blocked reports whether a bot wall answered instead of the site.
func (p *Page) Blocked() bool { return p.BlockedBy != "" }

// Fetcher performs single URL fetches. A single client is held across
// requests, so connection pooling and cookies persist for its lifetime.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sequential)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The proxy for a request travels in its context so one transport can
	// rotate proxies per request.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok {
			return u, nil
		}
		return nil, nil
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Proxy:              proxyFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client, logger: cfg.Logger}, nil
}

// Fetch GETs targetURL. Transport failures are returned and also recorded
// on the page; HTTP error statuses are not errors at this level.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	page := &Page{
		ID:        uuid.NewString(),
		URL:       targetURL,
		FetchedAt: time.Now().UTC(),
	}

	if err := f.config.Limiter.Wait(ctx); err != nil {
		page.Error = fmt.Sprintf("rate limiter: %v", err)
		return page, err
	}

	start := time.Now()
	resp, activeProxy, err := f.do(ctx, http.MethodGet, targetURL)
	if err != nil {
		page.Error = err.Error()
		page.Duration = time.Since(start)
		f.record(page)
		return page, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	page.Duration = time.Since(start)
	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	page.Body = body
	page.FinalURL = resp.Request.URL.String()
	if err != nil {
		page.Error = fmt.Sprintf("failed to read body: %v", err)
		f.record(page)
		return page, fmt.Errorf("failed to read body of %s: %w", targetURL, err)
	}

	verdict := bypass.Analyze(bypass.Response{
		StatusCode: page.StatusCode,
		Headers:    page.Headers,
		Body:       page.Body,
	}, bypass.DefaultDetectors())
	page.BlockedBy = verdict.Source

	f.logger.Debug("fetched page",
		"url", targetURL,
		"status", page.StatusCode,
		"bytes", len(body),
		"proxy", activeProxy != nil,
		"blocked_by", page.BlockedBy,
		"duration", page.Duration,
	)
	f.record(page)
	return page, nil
}

// Head issues a HEAD request, following redirects, and returns the final
// status code.
func (f *Fetcher) Head(ctx context.Context, targetURL string) (int, error) {
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return 0, err
	}
	resp, _, err := f.do(ctx, http.MethodHead, targetURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (f *Fetcher) do(ctx context.Context, method, targetURL string) (*http.Response, *url.URL, error) {
	if ctx == nil {
		return nil, nil, errors.New("context cannot be nil")
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
		if activeProxy != nil {
			ctx = context.WithValue(ctx, proxyKey, activeProxy)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(ctx, req)
	if activeProxy != nil {
		_ = f.config.ProxyPool.Report(activeProxy, err)
		if err != nil {
			metrics.ProxyFailures.WithLabelValues(activeProxy.Host).Inc()
		}
	}
	if err != nil {
		return nil, activeProxy, fmt.Errorf("request failed: %w", err)
	}
	return resp, activeProxy, nil
}

func (f *Fetcher) record(p *Page) {
	host := ""
	if u, err := url.Parse(p.URL); err == nil {
		host = u.Hostname()
	}
	metrics.RecordFetch(metrics.Fetch{
		Host:       host,
		StatusCode: p.StatusCode,
		Failed:     p.Error != "",
		BlockedBy:  p.BlockedBy,
		Bytes:      len(p.Body),
		Duration:   p.Duration,
	})
}

package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// RobotsTxtAuditor answers whether a URL may be fetched under the host's
// robots.txt. Lookups are cached per origin; an unreachable or unparsable
// robots.txt allows everything.
type RobotsTxtAuditor struct {
	fetcher *Fetcher
	logger  *slog.Logger
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsTxtAuditor creates a new instance.
func NewRobotsTxtAuditor(fetcher *Fetcher, logger *slog.Logger) *RobotsTxtAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsTxtAuditor{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether userAgent may fetch targetURL.
func (r *RobotsTxtAuditor) IsAllowed(ctx context.Context, targetURL, userAgent string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return false, fmt.Errorf("invalid url %q: not absolute", targetURL)
	}

	data := r.rules(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, userAgent), nil
}

func (r *RobotsTxtAuditor) rules(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.RLock()
	data, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return data
	}

	v, _, _ := r.group.Do(origin, func() (any, error) {
		r.mu.RLock()
		data, ok := r.cache[origin]
		r.mu.RUnlock()
		if ok {
			return data, nil
		}

		data, err := r.fetchRules(ctx, origin)
		if err != nil {
			r.logger.Debug("robots.txt unavailable, defaulting to allow", "origin", origin, "err", err)
		}
		r.mu.Lock()
		r.cache[origin] = data
		r.mu.Unlock()
		return data, nil
	})
	data, _ = v.(*robotstxt.RobotsData)
	return data
}

func (r *RobotsTxtAuditor) fetchRules(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	page, err := r.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, fmt.Errorf("fetch error: %w", err)
	}
	if page.StatusCode >= 400 || page.Blocked() {
		return nil, nil
	}

	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return data, nil
}

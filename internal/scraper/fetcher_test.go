package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/scribe/pkg/proxy"
	"github.com/FranksOps/scribe/pkg/ratelimit"
	"github.com/FranksOps/scribe/pkg/useragent"
)

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestBrowser/1.0" {
			t.Errorf("expected rotated User-Agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("X-Test", "true")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout: 5 * time.Second,
		UAPool:  useragent.NewPool([]string{"TestBrowser/1.0"}, useragent.Sequential),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Error != "" {
		t.Fatalf("expected no fetch error, got %s", page.Error)
	}
	if page.StatusCode != http.StatusOK || string(page.Body) != "ok" {
		t.Errorf("unexpected page %d %q", page.StatusCode, page.Body)
	}
	if page.Headers.Get("X-Test") != "true" {
		t.Errorf("expected X-Test header, got %v", page.Headers)
	}
	if page.Duration == 0 || page.ID == "" || page.FetchedAt.IsZero() {
		t.Errorf("expected duration, id and timestamp to be set: %+v", page)
	}
	if page.Blocked() {
		t.Errorf("unexpected bot wall %q", page.BlockedBy)
	}
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{})
	page, err := fetcher.Fetch(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.FinalURL != ts.URL+"/new" || string(page.Body) != "moved" {
		t.Errorf("unexpected final url %q body %q", page.FinalURL, page.Body)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Timeout: 10 * time.Millisecond})
	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(page.Error, "request failed") {
		t.Errorf("expected failure recorded on page, got %q", page.Error)
	}
}

func TestFetcher_MaxBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{MaxBodyBytes: 10})
	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Body) != 10 {
		t.Errorf("expected truncated body, got %d bytes", len(page.Body))
	}
}

func TestFetcher_DetectsBotWall(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Attention Required! | Cloudflare"))
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{})
	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.BlockedBy != "Cloudflare" {
		t.Errorf("expected Cloudflare block, got %q", page.BlockedBy)
	}
}

func TestFetcher_Head(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		http.Redirect(w, r, "/gone", http.StatusFound)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{})
	status, err := fetcher.Head(context.Background(), ts.URL+"/post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusGone {
		t.Errorf("expected final status 410, got %d", status)
	}
}

func TestFetcher_Proxy(t *testing.T) {
	// The "proxy" answers every request itself.
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer proxyServer.Close()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	pool := proxy.NewPool(proxy.Config{MaxFailures: 1, Cooldown: time.Second})
	if err := pool.Add(proxyServer.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}

	fetcher, _ := NewFetcher(FetchConfig{Timeout: 5 * time.Second, ProxyPool: pool})
	page, err := fetcher.Fetch(context.Background(), target.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418 from proxy, got %d", page.StatusCode)
	}
}

func TestFetcher_RateLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Limiter: ratelimit.NewLimiter(1, 0)})

	if _, err := fetcher.Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	page, err := fetcher.Fetch(ctx, ts.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected second fetch to wait past the deadline, got %v", err)
	}
	if page.Error == "" {
		t.Error("expected limiter failure recorded on page")
	}
}

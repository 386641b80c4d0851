package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetchConfig{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	return f
}

func TestRobotsTxtAuditor_IsAllowed(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`
User-agent: *
Disallow: /admin/
Allow: /admin/public/

User-agent: BadBot
Disallow: /
`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	auditor := NewRobotsTxtAuditor(newTestFetcher(t), slog.Default())
	ctx := context.Background()

	tests := []struct {
		path  string
		agent string
		want  bool
	}{
		{"/blog/post", "GoodBot", true},
		{"/admin/secret", "GoodBot", false},
		{"/admin/public/index.html", "GoodBot", true},
		{"/blog/post", "BadBot", false},
	}
	for _, tt := range tests {
		got, err := auditor.IsAllowed(ctx, ts.URL+tt.path, tt.agent)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("IsAllowed(%s, %s) = %v, want %v", tt.path, tt.agent, got, tt.want)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", hits.Load())
	}
}

func TestRobotsTxtAuditor_ConcurrentLookupsShareFetch(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	}))
	defer ts.Close()

	auditor := NewRobotsTxtAuditor(newTestFetcher(t), nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := auditor.IsAllowed(context.Background(), ts.URL+"/private/x", "*"); ok {
				t.Error("expected /private/x to be disallowed")
			}
		}()
	}
	wg.Wait()

	if hits.Load() != 1 {
		t.Errorf("expected a single robots.txt fetch, got %d", hits.Load())
	}
}

func TestRobotsTxtAuditor_MissingRobots(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	auditor := NewRobotsTxtAuditor(newTestFetcher(t), slog.Default())
	allowed, err := auditor.IsAllowed(context.Background(), ts.URL+"/anything", "Bot")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Errorf("expected missing robots.txt to default to allowed")
	}
}

func TestRobotsTxtAuditor_InvalidURL(t *testing.T) {
	auditor := NewRobotsTxtAuditor(newTestFetcher(t), nil)
	if _, err := auditor.IsAllowed(context.Background(), "/relative/path", "Bot"); err == nil {
		t.Error("expected error for relative url")
	}
}

package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/FranksOps/scribe/pkg/httpclient"
)

func TestGoogleCustomSearch(t *testing.T) {
	saved, err := os.ReadFile("testdata/web_design.json")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "web design" || q.Get("cx") != "engine" || q.Get("num") != "10" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("key") != "" {
			t.Error("api key must not be sent in the url")
		}
		if r.Header.Get("X-Goog-Api-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(saved)
	}))
	defer ts.Close()

	client, _ := httpclient.New(httpclient.Config{})
	g := &GoogleCustomSearch{APIKey: "secret", EngineID: "engine", Endpoint: ts.URL, Client: client}

	got, err := g.Search(context.Background(), "web design", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 || got[2].DisplayLink != "www.hubspot.com" {
		t.Errorf("unexpected results %+v", got)
	}
}

func TestGoogleCustomSearch_Errors(t *testing.T) {
	if _, err := (&GoogleCustomSearch{}).Search(context.Background(), "x", 10); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	}))
	defer ts.Close()

	g := &GoogleCustomSearch{APIKey: "k", EngineID: "e", Endpoint: ts.URL}
	_, err := g.Search(context.Background(), "x", 3)
	var se *httpclient.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected api message in error, got %v", err)
	}
}

package serp

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestFileProvider(t *testing.T) {
	got, err := FileProvider{Path: "testdata/web_design.json"}.Search(context.Background(), "ignored", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 results, got %d", len(got))
	}
	if got[3].Metatags["og:type"] != "article" {
		t.Errorf("expected og:type metatag, got %v", got[3].Metatags)
	}
	if _, ok := got[3].Metatags["article:published_time"]; ok {
		t.Error("non-string metatags should be dropped")
	}
	if got[0].Metatags != nil {
		t.Errorf("expected nil metatags without a pagemap, got %v", got[0].Metatags)
	}

	limited, _ := FileProvider{Path: "testdata/web_design.json"}.Search(context.Background(), "", 2)
	if len(limited) != 2 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestFileProvider_Missing(t *testing.T) {
	_, err := FileProvider{Path: "testdata/nope.json"}.Search(context.Background(), "", 10)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode(strings.NewReader(`{"kind":"customsearch#search"}`), 10)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty results without items, got %v %v", got, err)
	}
	if _, err := Decode(strings.NewReader(`{`), 10); err == nil {
		t.Error("expected decode error")
	}
}

// Package serp finds a reference blog post for a topic: it queries a search
// provider and picks the first result that looks like a reachable article.
package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoBlogPost is returned when no search result qualifies as a blog post.
var ErrNoBlogPost = errors.New("no suitable blog post found")

// Result is one organic search hit.
type Result struct {
	Title       string            `json:"title"`
	Link        string            `json:"link"`
	Snippet     string            `json:"snippet,omitempty"`
	DisplayLink string            `json:"displayLink,omitempty"`
	Metatags    map[string]string `json:"metatags,omitempty"`
}

// Provider runs a web search and returns at most limit results.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// response mirrors the parts of a Custom Search JSON API response we read.
type response struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
		Pagemap     struct {
			Metatags []map[string]any `json:"metatags"`
		} `json:"pagemap"`
	} `json:"items"`
}

func (r *response) results(limit int) []Result {
	out := make([]Result, 0, len(r.Items))
	for _, it := range r.Items {
		if limit > 0 && len(out) == limit {
			break
		}
		res := Result{
			Title:       it.Title,
			Link:        it.Link,
			Snippet:     it.Snippet,
			DisplayLink: it.DisplayLink,
		}
		if len(it.Pagemap.Metatags) > 0 {
			res.Metatags = make(map[string]string, len(it.Pagemap.Metatags[0]))
			for k, v := range it.Pagemap.Metatags[0] {
				if s, ok := v.(string); ok {
					res.Metatags[k] = s
				}
			}
		}
		out = append(out, res)
	}
	return out
}

// FileProvider serves results from a saved Custom Search JSON response,
// for offline runs. The query is ignored.
type FileProvider struct {
	Path string
}

// Search implements Provider.
func (p FileProvider) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open saved search response: %w", err)
	}
	defer f.Close()
	return Decode(f, limit)
}

// Decode parses a Custom Search JSON response. A response without items
// yields an empty slice.
func Decode(r io.Reader, limit int) ([]Result, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return resp.results(limit), nil
}

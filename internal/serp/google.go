package serp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/FranksOps/scribe/pkg/httpclient"
)

// DefaultEndpoint is the Custom Search JSON API.
const DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// maxResults is the API's per-request ceiling.
const maxResults = 10

// ErrMissingCredentials is returned when the API key or engine id is empty.
var ErrMissingCredentials = errors.New("google custom search requires an api key and engine id")

// GoogleCustomSearch queries the Google Custom Search JSON API.
type GoogleCustomSearch struct {
	APIKey   string
	EngineID string
	// Endpoint overrides DefaultEndpoint.
	Endpoint string
	Client   *httpclient.Client
}

// Search implements Provider. limit is clamped to 1..10.
func (g *GoogleCustomSearch) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if g.APIKey == "" || g.EngineID == "" {
		return nil, ErrMissingCredentials
	}
	limit = min(max(limit, 1), maxResults)

	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("cx", g.EngineID)
	q.Set("num", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	client := g.Client
	if client == nil {
		if client, err = httpclient.New(httpclient.Config{}); err != nil {
			return nil, err
		}
	}

	// The key travels in a header so it never lands in logged URLs.
	hdr := http.Header{"X-Goog-Api-Key": {g.APIKey}}
	var resp response
	if err := client.DoJSON(ctx, http.MethodGet, u.String(), hdr, nil, &resp); err != nil {
		return nil, fmt.Errorf("custom search for %q failed: %w", query, err)
	}
	return resp.results(limit), nil
}

package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var (
	// ErrBadStatus is returned when the page answered with a non-2xx status.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrBlocked is returned when a bot wall answered instead of the site.
	ErrBlocked = errors.New("blocked by bot protection")
	// ErrNoContent is returned when no article text could be located.
	ErrNoContent = errors.New("no article content found")
	// ErrDisallowed is returned when robots.txt forbids the page.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// Extraction methods recorded on Article.Extractor.
const (
	ExtractorReadability = "readability"
	ExtractorFallback    = "fallback"
)

// containerTags are tried in order when readability finds nothing.
var containerTags = []string{"article", "main", "section"}

// noiseTags are removed from the fallback container before reading text.
const noiseTags = "script, style, aside, nav, footer"

// Article is the readable text of a reference page.
type Article struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Extractor string `json:"extractor"`
}

// ArticleScraper fetches a page and extracts its main text, trying
// readability first and a tag-based fallback second.
type ArticleScraper struct {
	fetcher *Fetcher
	robots  *RobotsTxtAuditor
	agent   string
	logger  *slog.Logger
}

// ArticleOption customises an ArticleScraper.
type ArticleOption func(*ArticleScraper)

// WithRobots makes the scraper consult robots.txt as agent before fetching.
func WithRobots(a *RobotsTxtAuditor, agent string) ArticleOption {
	return func(s *ArticleScraper) {
		s.robots = a
		s.agent = agent
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ArticleOption {
	return func(s *ArticleScraper) { s.logger = l }
}

// NewArticleScraper builds a scraper on top of f.
func NewArticleScraper(f *Fetcher, opts ...ArticleOption) *ArticleScraper {
	s := &ArticleScraper{fetcher: f, agent: "*"}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scrape downloads targetURL and returns its article text, stripped of
// surrounding whitespace. It never returns an Article with empty Text.
func (s *ArticleScraper) Scrape(ctx context.Context, targetURL string) (*Article, error) {
	if s.robots != nil {
		ok, err := s.robots.IsAllowed(ctx, targetURL, s.agent)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", targetURL, ErrDisallowed)
		}
	}

	page, err := s.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", targetURL, err)
	}
	if page.Blocked() {
		return nil, fmt.Errorf("%s (%s): %w", targetURL, page.BlockedBy, ErrBlocked)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned %d: %w", targetURL, page.StatusCode, ErrBadStatus)
	}

	base := page.FinalURL
	if base == "" {
		base = targetURL
	}
	article, err := ExtractArticle(page.Body, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", targetURL, err)
	}
	article.URL = targetURL

	s.logger.Info("article extracted",
		"url", targetURL,
		"extractor", article.Extractor,
		"chars", len(article.Text),
	)
	return article, nil
}

// ExtractArticle pulls the main text out of an HTML document.
func ExtractArticle(body []byte, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}

	if ra, err := readability.FromReader(bytes.NewReader(body), u); err == nil {
		if text := strings.TrimSpace(ra.TextContent); text != "" {
			return &Article{Title: strings.TrimSpace(ra.Title), Text: text, Extractor: ExtractorReadability}, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	text := fallbackText(doc)
	if text == "" {
		return nil, ErrNoContent
	}
	return &Article{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Text:      text,
		Extractor: ExtractorFallback,
	}, nil
}

// fallbackText takes the first article, main or section element, drops
// noise elements, and joins its trimmed text nodes with newlines.
func fallbackText(doc *goquery.Document) string {
	var container *goquery.Selection
	for _, tag := range containerTags {
		if sel := doc.Find(tag).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}
	if container == nil {
		return ""
	}

	container.Find(noiseTags).Remove()

	var parts []string
	for _, n := range container.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

package serp

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBlacklist holds forum, wiki and social domains whose pages are not
// usable reference articles.
var DefaultBlacklist = []string{
	"reddit.com", "wikipedia.org", "medium.com", "quora.com", "linkedin.com", "x.com", "twitter.com",
}

// DefaultBlogPatterns mark a link as a blog post by path.
var DefaultBlogPatterns = []string{"/blog/", "/post/", "/articles/"}

// DefaultServicePaths mark company pages that are never articles.
var DefaultServicePaths = []string{"/contact", "/services", "/pricing", "/about"}

// DefaultWhitelist holds publishers whose pages count as articles without a
// blog path. Entries with a path only match below that path.
var DefaultWhitelist = []string{
	// marketing and business
	"hubspot.com", "neilpatel.com", "moz.com", "semrush.com", "ahrefs.com",
	"searchenginejournal.com", "backlinko.com", "sproutsocial.com", "contentmarketinginstitute.com",
	// technology
	"techcrunch.com", "thenextweb.com", "wired.com", "smashingmagazine.com",
	"venturebeat.com", "makeuseof.com", "readwrite.com",
	// startups
	"forbes.com", "entrepreneur.com", "inc.com", "fastcompany.com",
	// web design and development
	"webflow.com/blog", "wix.com/blog", "css-tricks.com",
	"speckyboy.com", "sitepoint.com", "tutsplus.com", "developer.mozilla.org",
	// finance
	"investopedia.com", "businessinsider.com", "thebalance.com", "nerdwallet.com",
	// design
	"dribbble.com/stories", "creativebloq.com", "99designs.com/blog", "canva.com/blog",
	// seo
	"searchenginewatch.com", "seroundtable.com", "cognitiveseo.com", "seoptimer.com",
	// data and ai
	"towardsdatascience.com", "analyticsvidhya.com", "openai.com/research", "huggingface.co/blog",
	// writing
	"problogger.com", "copyblogger.com", "writersdigest.com", "grammarly.com/blog",
}

// minLinkLength rejects truncated or placeholder links.
const minLinkLength = 10

// Checker reports the status a URL finally answers with.
type Checker interface {
	Head(ctx context.Context, url string) (int, error)
}

// SelectorConfig holds the filter lists. Nil lists take the defaults; an
// empty non-nil list disables that filter.
type SelectorConfig struct {
	Blacklist    []string `mapstructure:"blacklist"`
	Whitelist    []string `mapstructure:"whitelist"`
	BlogPatterns []string `mapstructure:"blog_patterns"`
	ServicePaths []string `mapstructure:"service_paths"`
}

// Selector picks the first search result that looks like a live blog post.
type Selector struct {
	cfg     SelectorConfig
	checker Checker
	logger  *slog.Logger
}

// NewSelector creates a selector. A nil checker skips the reachability check.
func NewSelector(cfg SelectorConfig, checker Checker, logger *slog.Logger) *Selector {
	if cfg.Blacklist == nil {
		cfg.Blacklist = DefaultBlacklist
	}
	if cfg.Whitelist == nil {
		cfg.Whitelist = DefaultWhitelist
	}
	if cfg.BlogPatterns == nil {
		cfg.BlogPatterns = DefaultBlogPatterns
	}
	if cfg.ServicePaths == nil {
		cfg.ServicePaths = DefaultServicePaths
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, checker: checker, logger: logger}
}

// SelectBlogPost returns the first result in order that passes every filter.
// It returns ErrNoBlogPost when none does, including for an empty list.
func (s *Selector) SelectBlogPost(ctx context.Context, results []Result) (*Result, error) {
	for i := range results {
		r := results[i]
		reason := s.reject(r)
		if reason == "" && s.checker != nil {
			reason = s.unreachable(ctx, r.Link)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if reason != "" {
			s.logger.Debug("skipping search result", "link", r.Link, "reason", reason)
			continue
		}
		s.logger.Info("selected blog post", "link", r.Link, "title", r.Title)
		return &r, nil
	}
	return nil, ErrNoBlogPost
}

// reject returns why r is not a blog post, or "" if it passes the static
// filters.
func (s *Selector) reject(r Result) string {
	link := strings.ToLower(strings.TrimSpace(r.Link))
	if len(link) < minLinkLength || !strings.HasPrefix(link, "http") {
		return "invalid link"
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "invalid link"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")

	for _, d := range s.cfg.Blacklist {
		if matchesDomain(host, strings.ToLower(d)) {
			return "blacklisted domain"
		}
	}
	for _, p := range s.cfg.ServicePaths {
		if strings.Contains(u.Path, strings.ToLower(p)) {
			return "service page"
		}
	}

	if s.looksLikeBlog(link, host, u.Path, r) {
		return ""
	}
	return "not a blog post"
}

func (s *Selector) looksLikeBlog(link, host, path string, r Result) bool {
	for _, p := range s.cfg.BlogPatterns {
		if strings.Contains(link, strings.ToLower(p)) {
			return true
		}
	}

	display := strings.TrimPrefix(strings.ToLower(r.DisplayLink), "www.")
	for _, w := range s.cfg.Whitelist {
		w = strings.ToLower(w)
		domain, prefix, scoped := strings.Cut(w, "/")
		switch {
		case scoped && matchesDomain(host, domain) && strings.HasPrefix(path, "/"+prefix):
			return true
		case !scoped && (matchesDomain(host, w) || display == w):
			return true
		}
	}

	return strings.EqualFold(strings.TrimSpace(r.Metatags["og:type"]), "article")
}

func (s *Selector) unreachable(ctx context.Context, link string) string {
	status, err := s.checker.Head(ctx, link)
	if err != nil {
		return "unreachable: " + err.Error()
	}
	if status >= http.StatusBadRequest {
		return "unreachable: " + http.StatusText(status)
	}
	return ""
}

// matchesDomain reports whether host is domain or one of its subdomains.
func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

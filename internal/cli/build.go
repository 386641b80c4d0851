package cli

import (
	"fmt"

	"github.com/FranksOps/scribe/internal/config"
	"github.com/FranksOps/scribe/internal/fingerprint"
	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/FranksOps/scribe/internal/keywords/stopwords"
	"github.com/FranksOps/scribe/internal/scraper"
	"github.com/FranksOps/scribe/internal/serp"
	"github.com/FranksOps/scribe/internal/yake"
	"github.com/FranksOps/scribe/pkg/httpclient"
	"github.com/FranksOps/scribe/pkg/proxy"
	"github.com/FranksOps/scribe/pkg/ratelimit"
	"github.com/FranksOps/scribe/pkg/useragent"
)

func (a *app) fetcher() (*scraper.Fetcher, error) {
	sc := a.cfg.Scraper
	profile, err := fingerprint.ParseProfile(sc.Fingerprint)
	if err != nil {
		return nil, err
	}

	var pool *proxy.Pool
	if sc.ProxiesFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(sc.ProxiesFile); err != nil {
			return nil, err
		}
		a.logger.Debug("loaded proxies", "count", pool.Len())
	}

	return scraper.NewFetcher(scraper.FetchConfig{
		Timeout:            sc.Timeout,
		MaxRedirects:       sc.MaxRedirects,
		UseCookieJar:       true,
		MaxBodyBytes:       sc.MaxBodyBytes,
		UAPool:             useragent.NewPool(sc.UserAgents, useragent.Mode(sc.UAMode)),
		Fingerprint:        profile,
		InsecureSkipVerify: sc.Insecure,
		ProxyPool:          pool,
		Limiter:            ratelimit.NewLimiter(sc.RPS, sc.Jitter),
		Logger:             a.logger,
	})
}

func (a *app) articleScraper(f *scraper.Fetcher) *scraper.ArticleScraper {
	opts := []scraper.ArticleOption{scraper.WithLogger(a.logger)}
	if a.cfg.Scraper.RespectRobots {
		opts = append(opts, scraper.WithRobots(scraper.NewRobotsTxtAuditor(f, a.logger), a.cfg.Scraper.RobotsAgent))
	}
	return scraper.NewArticleScraper(f, opts...)
}

func (a *app) searchProvider() (serp.Provider, error) {
	sc := a.cfg.Search
	if sc.Provider == config.SearchFile {
		return serp.FileProvider{Path: sc.File}, nil
	}
	client, err := httpclient.New(httpclient.Config{Timeout: a.cfg.Scraper.Timeout})
	if err != nil {
		return nil, err
	}
	return &serp.GoogleCustomSearch{
		APIKey:   sc.APIKey,
		EngineID: sc.EngineID,
		Endpoint: sc.Endpoint,
		Client:   client,
	}, nil
}

// extractor builds an Extractor for the preset kc. A configured keyword
// format overrides the preset's.
func (a *app) extractor(kc keywords.Config) (*keywords.Extractor, error) {
	if f := a.cfg.Keywords.Format; f != "" {
		format, err := keywords.ParseFormat(string(f))
		if err != nil {
			return nil, err
		}
		kc.Format = format
	}
	stops := stopwords.English()
	if path := a.cfg.Keywords.StopwordsFile; path != "" {
		var err error
		if stops, err = stopwords.LoadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load stopwords: %w", err)
		}
	}
	return keywords.NewExtractor(kc, stops, yake.New(yake.Config{Stopwords: stops})), nil
}

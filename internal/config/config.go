// Package config loads scribe settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/scribe/internal/fingerprint"
	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/FranksOps/scribe/internal/llm"
	"github.com/FranksOps/scribe/internal/metrics"
	"github.com/FranksOps/scribe/internal/pipeline"
	"github.com/FranksOps/scribe/internal/serp"
	"github.com/FranksOps/scribe/pkg/useragent"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCRIBE_LLM_MODEL.
const EnvPrefix = "SCRIBE"

// Search providers.
const (
	SearchGoogle = "google"
	SearchFile   = "file"
)

// Config is the full scribe configuration.
type Config struct {
	Search   SearchConfig     `mapstructure:"search"`
	Scraper  ScraperConfig    `mapstructure:"scraper"`
	Keywords KeywordsConfig   `mapstructure:"keywords"`
	LLM      llm.Config       `mapstructure:"llm"`
	Pipeline pipeline.Options `mapstructure:"pipeline"`
	Log      LogConfig        `mapstructure:"log"`
	Metrics  metrics.Sink     `mapstructure:"metrics"`
}

// SearchConfig selects the search provider and the reference post filters.
type SearchConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
	Endpoint string `mapstructure:"endpoint"`
	// File is a saved search response, used when Provider is "file".
	File     string              `mapstructure:"file"`
	Selector serp.SelectorConfig `mapstructure:"selector"`
}

// ScraperConfig controls how reference pages are fetched.
type ScraperConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	Fingerprint  string        `mapstructure:"fingerprint"`
	UserAgents   []string      `mapstructure:"user_agents"`
	UAMode       string        `mapstructure:"ua_mode"`
	ProxiesFile  string        `mapstructure:"proxies_file"`
	// RPS limits requests per second across the run; zero disables it.
	RPS           float64 `mapstructure:"rps"`
	Jitter        float64 `mapstructure:"jitter"`
	RespectRobots bool    `mapstructure:"respect_robots"`
	RobotsAgent   string  `mapstructure:"robots_agent"`
	Insecure      bool    `mapstructure:"insecure"`
}

// KeywordsConfig is the extraction config plus an optional stopword list
// replacing the built-in English one.
type KeywordsConfig struct {
	keywords.Config `mapstructure:",squash"`
	StopwordsFile   string `mapstructure:"stopwords_file"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel parses Level. Unknown values are rejected by Validate.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// New returns a viper instance carrying the defaults and environment
// bindings. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	def := keywords.ArticleConfig()
	v.SetDefault("search.provider", SearchGoogle)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.endpoint", serp.DefaultEndpoint)
	v.SetDefault("search.file", "")

	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("scraper.max_redirects", 10)
	v.SetDefault("scraper.max_body_bytes", 10<<20)
	v.SetDefault("scraper.fingerprint", string(fingerprint.ProfileGo))
	v.SetDefault("scraper.ua_mode", string(useragent.Random))
	v.SetDefault("scraper.proxies_file", "")
	v.SetDefault("scraper.rps", 0)
	v.SetDefault("scraper.jitter", 0.2)
	v.SetDefault("scraper.respect_robots", true)
	v.SetDefault("scraper.robots_agent", "scribe")
	v.SetDefault("scraper.insecure", false)

	v.SetDefault("keywords.top_n", def.TopN)
	v.SetDefault("keywords.min_occurrences", def.MinOccurrences)
	v.SetDefault("keywords.max_key_phrases", def.MaxKeyPhrases)
	v.SetDefault("keywords.ngram_size", def.NgramSize)
	// Empty keeps each preset's own format.
	v.SetDefault("keywords.format", "")
	v.SetDefault("keywords.stopwords_file", "")

	v.SetDefault("llm.provider", llm.BackendOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 5*time.Minute)
	v.SetDefault("llm.max_tokens", 0)

	v.SetDefault("pipeline.search_limit", 10)
	v.SetDefault("pipeline.min_length", 1000)
	v.SetDefault("pipeline.dry_run", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", "scribe")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// names the upstream tools read
	_ = v.BindEnv("search.api_key", EnvPrefix+"_SEARCH_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("search.engine_id", EnvPrefix+"_SEARCH_ENGINE_ID", "GOOGLE_CSE_ID")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")

	return v
}

// Load reads path, if set, into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Scraper.UserAgents = trimEmpty(cfg.Scraper.UserAgents)
	return &cfg, nil
}

func trimEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the values that do not depend on which command runs.
func (c *Config) Validate() error {
	var errs []error

	switch c.Search.Provider {
	case SearchGoogle, SearchFile:
	default:
		errs = append(errs, fmt.Errorf("unknown search provider %q", c.Search.Provider))
	}
	if _, err := fingerprint.ParseProfile(c.Scraper.Fingerprint); err != nil {
		errs = append(errs, err)
	}
	switch useragent.Mode(c.Scraper.UAMode) {
	case useragent.Random, useragent.Sequential:
	default:
		errs = append(errs, fmt.Errorf("unknown user agent mode %q", c.Scraper.UAMode))
	}
	if c.Scraper.RPS < 0 {
		errs = append(errs, fmt.Errorf("scraper.rps must not be negative, got %v", c.Scraper.RPS))
	}
	if c.Scraper.Jitter < 0 || c.Scraper.Jitter >= 1 {
		errs = append(errs, fmt.Errorf("scraper.jitter must be in [0, 1), got %v", c.Scraper.Jitter))
	}
	if _, err := keywords.ParseFormat(string(c.Keywords.Format)); err != nil {
		errs = append(errs, err)
	}
	for _, f := range []struct {
		name string
		n    int
	}{
		{"keywords.top_n", c.Keywords.TopN},
		{"keywords.min_occurrences", c.Keywords.MinOccurrences},
		{"keywords.max_key_phrases", c.Keywords.MaxKeyPhrases},
	} {
		if f.n < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", f.name, f.n))
		}
	}
	if c.Keywords.NgramSize < 1 {
		errs = append(errs, fmt.Errorf("keywords.ngram_size must be at least 1, got %d", c.Keywords.NgramSize))
	}
	switch strings.ToLower(c.LLM.Provider) {
	case llm.BackendOpenAI, llm.BackendOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ValidateSearch reports missing search credentials.
func (c *Config) ValidateSearch() error {
	switch c.Search.Provider {
	case SearchFile:
		if c.Search.File == "" {
			return errors.New("search.file is required for the file provider")
		}
	default:
		if c.Search.APIKey == "" || c.Search.EngineID == "" {
			return fmt.Errorf("%w: set GOOGLE_API_KEY and GOOGLE_CSE_ID", serp.ErrMissingCredentials)
		}
	}
	return nil
}

// ValidateLLM reports missing model credentials.
func (c *Config) ValidateLLM() error {
	if strings.ToLower(c.LLM.Provider) == llm.BackendOpenAI && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: set OPENAI_API_KEY", llm.ErrMissingAPIKey)
	}
	return nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/FranksOps/scribe/internal/llm"
	"github.com/FranksOps/scribe/internal/serp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.Provider != SearchGoogle || cfg.Search.Endpoint != serp.DefaultEndpoint {
		t.Errorf("unexpected search defaults %+v", cfg.Search)
	}
	if cfg.Scraper.Timeout != 30*time.Second || !cfg.Scraper.RespectRobots || cfg.Scraper.Fingerprint != "go" {
		t.Errorf("unexpected scraper defaults %+v", cfg.Scraper)
	}
	want := keywords.ArticleConfig()
	want.Format = ""
	if cfg.Keywords.Config != want {
		t.Errorf("unexpected keyword defaults %+v", cfg.Keywords.Config)
	}
	if cfg.LLM.Provider != llm.BackendOpenAI || cfg.LLM.Timeout != 5*time.Minute {
		t.Errorf("unexpected llm defaults %+v", cfg.LLM)
	}
	if cfg.Pipeline.SearchLimit != 10 || cfg.Pipeline.MinLength != 1000 {
		t.Errorf("unexpected pipeline defaults %+v", cfg.Pipeline)
	}
	if cfg.Search.Selector.Blacklist != nil {
		t.Errorf("selector lists should stay nil so the built-in ones apply")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	yaml := `search:
  provider: file
  file: results.json
  selector:
    blacklist: []
    whitelist: [example.com/blog]
scraper:
  timeout: 5s
  fingerprint: chrome
  user_agents: ["UA-1", " ", "UA-2"]
keywords:
  top_n: 20
  format: tuples
llm:
  provider: ollama
  model: mistral
pipeline:
  dry_run: true
log:
  level: debug
  format: json
metrics:
  textfile: /tmp/scribe.prom
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.Provider != SearchFile || cfg.Search.File != "results.json" {
		t.Errorf("unexpected search %+v", cfg.Search)
	}
	if cfg.Search.Selector.Blacklist == nil || len(cfg.Search.Selector.Blacklist) != 0 {
		t.Errorf("an empty blacklist should disable it, got %#v", cfg.Search.Selector.Blacklist)
	}
	if !reflect.DeepEqual(cfg.Search.Selector.Whitelist, []string{"example.com/blog"}) {
		t.Errorf("unexpected whitelist %v", cfg.Search.Selector.Whitelist)
	}
	if cfg.Scraper.Timeout != 5*time.Second || cfg.Scraper.Fingerprint != "chrome" {
		t.Errorf("unexpected scraper %+v", cfg.Scraper)
	}
	if !reflect.DeepEqual(cfg.Scraper.UserAgents, []string{"UA-1", "UA-2"}) {
		t.Errorf("blank user agents not dropped: %q", cfg.Scraper.UserAgents)
	}
	if cfg.Keywords.TopN != 20 || cfg.Keywords.Format != keywords.FormatTuples || cfg.Keywords.MinOccurrences != 3 {
		t.Errorf("unexpected keywords %+v", cfg.Keywords)
	}
	if cfg.LLM.Provider != llm.BackendOllama || cfg.LLM.Model != "mistral" || !cfg.Pipeline.DryRun {
		t.Errorf("unexpected llm/pipeline %+v %+v", cfg.LLM, cfg.Pipeline)
	}
	if cfg.Log.Level != "debug" || cfg.Log.SlogLevel().String() != "DEBUG" || cfg.Metrics.Textfile != "/tmp/scribe.prom" {
		t.Errorf("unexpected log/metrics %+v %+v", cfg.Log, cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
	if err := cfg.ValidateSearch(); err != nil {
		t.Errorf("unexpected search validation error: %v", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Errorf("ollama needs no key: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("GOOGLE_CSE_ID", "cse")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SCRIBE_LLM_MODEL", "o1-mini")
	t.Setenv("SCRIBE_SCRAPER_RPS", "2.5")
	t.Setenv("SCRIBE_KEYWORDS_FORMAT", "tuples")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.APIKey != "g-key" || cfg.Search.EngineID != "cse" {
		t.Errorf("google env not applied: %+v", cfg.Search)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.Model != "o1-mini" {
		t.Errorf("llm env not applied: %+v", cfg.LLM)
	}
	if cfg.Scraper.RPS != 2.5 || cfg.Keywords.Format != keywords.FormatTuples {
		t.Errorf("scribe env not applied: %+v %+v", cfg.Scraper, cfg.Keywords)
	}
	if err := cfg.ValidateSearch(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_PrefixedEnvWinsOverConventional(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-conventional")
	t.Setenv("SCRIBE_LLM_API_KEY", "sk-scribe")

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-scribe" {
		t.Errorf("expected prefixed key, got %q", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"search provider", func(c *Config) { c.Search.Provider = "bing" }, `unknown search provider "bing"`},
		{"fingerprint", func(c *Config) { c.Scraper.Fingerprint = "edge" }, `unknown tls profile "edge"`},
		{"ua mode", func(c *Config) { c.Scraper.UAMode = "shuffle" }, "unknown user agent mode"},
		{"rps", func(c *Config) { c.Scraper.RPS = -1 }, "scraper.rps"},
		{"jitter", func(c *Config) { c.Scraper.Jitter = 1 }, "scraper.jitter"},
		{"format", func(c *Config) { c.Keywords.Format = "csv" }, "unknown keyword format"},
		{"top n", func(c *Config) { c.Keywords.TopN = -1 }, "keywords.top_n must not be negative"},
		{"min occurrences", func(c *Config) { c.Keywords.MinOccurrences = -2 }, "keywords.min_occurrences must not be negative"},
		{"max key phrases", func(c *Config) { c.Keywords.MaxKeyPhrases = -1 }, "keywords.max_key_phrases must not be negative"},
		{"ngram size", func(c *Config) { c.Keywords.NgramSize = 0 }, "keywords.ngram_size must be at least 1"},
		{"llm", func(c *Config) { c.LLM.Provider = "bard" }, "unknown llm provider"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	cfg := *base
	cfg.Search.Provider = "bing"
	cfg.Log.Format = "xml"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "bing") || !strings.Contains(err.Error(), "xml") {
		t.Errorf("expected every problem reported, got %v", err)
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Search.APIKey, cfg.Search.EngineID, cfg.LLM.APIKey = "", "", ""

	if err := cfg.ValidateSearch(); !errors.Is(err, serp.ErrMissingCredentials) {
		t.Errorf("expected missing credentials, got %v", err)
	}
	if err := cfg.ValidateLLM(); !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Errorf("expected missing api key, got %v", err)
	}

	cfg.Search.Provider = SearchFile
	if err := cfg.ValidateSearch(); err == nil {
		t.Error("expected error for file provider without a path")
	}
}

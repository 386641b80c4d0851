// Package pipeline runs one article generation end to end: search, pick a
// reference post, scrape it, extract keywords, build the prompt and ask the
// model. Stages run strictly in order and the first failure ends the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/scribe/internal/analyzer"
	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/FranksOps/scribe/internal/llm"
	"github.com/FranksOps/scribe/internal/metrics"
	"github.com/FranksOps/scribe/internal/prompt"
	"github.com/FranksOps/scribe/internal/scraper"
	"github.com/FranksOps/scribe/internal/serp"
	"github.com/google/uuid"
)

// Stage names a pipeline step.
type Stage string

const (
	StageSearch   Stage = "search"
	StageSelect   Stage = "select"
	StageScrape   Stage = "scrape"
	StageExtract  Stage = "extract"
	StagePrompt   Stage = "prompt"
	StageGenerate Stage = "generate"
)

// StageError reports which stage ended a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Selector picks the reference post from search results.
type Selector interface {
	SelectBlogPost(ctx context.Context, results []serp.Result) (*serp.Result, error)
}

// Scraper turns a URL into article text.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Article, error)
}

// Options tune a run.
type Options struct {
	// SearchLimit is the number of results requested; zero means 10.
	SearchLimit int `mapstructure:"search_limit"`
	// MinLength is the minimum article length asked of the model.
	MinLength int `mapstructure:"min_length"`
	// DryRun stops after the prompt is built.
	DryRun bool `mapstructure:"dry_run"`
}

// Timing is how long one stage took.
type Timing struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Result is everything a run produced. On failure it holds the output of
// the stages that completed.
type Result struct {
	RunID          string             `json:"run_id"`
	Topic          string             `json:"topic"`
	StartedAt      time.Time          `json:"started_at"`
	Duration       time.Duration      `json:"duration"`
	Source         *serp.Result       `json:"source,omitempty"`
	Article        *scraper.Article   `json:"article,omitempty"`
	Keywords       keywords.Keywords  `json:"keywords,omitempty"`
	KeywordSummary string             `json:"keyword_summary,omitempty"`
	Prompt         []prompt.Message   `json:"prompt,omitempty"`
	Model          string             `json:"model,omitempty"`
	Generated      string             `json:"generated,omitempty"`
	Coverage       *analyzer.Coverage `json:"coverage,omitempty"`
	DryRun         bool               `json:"dry_run"`
	Timings        []Timing           `json:"timings"`
}

// Pipeline wires the stage implementations together.
type Pipeline struct {
	Search    serp.Provider
	Selector  Selector
	Scraper   Scraper
	Extractor *keywords.Extractor
	LLM       llm.Provider
	Options   Options
	Logger    *slog.Logger
}

func (p *Pipeline) validate(needSearch bool) error {
	var missing []string
	if needSearch && p.Search == nil {
		missing = append(missing, "search provider")
	}
	if needSearch && p.Selector == nil {
		missing = append(missing, "selector")
	}
	if needSearch && p.Scraper == nil {
		missing = append(missing, "scraper")
	}
	if p.Extractor == nil {
		missing = append(missing, "keyword extractor")
	}
	if p.LLM == nil && !p.Options.DryRun {
		missing = append(missing, "llm provider")
	}
	if len(missing) > 0 {
		return fmt.Errorf("pipeline is missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func newResult(topic string, dryRun bool) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		Topic:     strings.TrimSpace(topic),
		StartedAt: time.Now().UTC(),
		DryRun:    dryRun,
	}
}

// Run generates an article for topic using a reference post found online.
func (p *Pipeline) Run(ctx context.Context, topic string) (*Result, error) {
	if err := p.validate(true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic) == "" {
		return nil, prompt.ErrEmptyTopic
	}

	res := newResult(topic, p.Options.DryRun)
	defer func() { res.Duration = time.Since(res.StartedAt) }()
	log := p.logger().With("run_id", res.RunID)
	log.Info("starting run", "topic", res.Topic, "dry_run", res.DryRun)

	var results []serp.Result
	err := p.stage(ctx, log, res, StageSearch, func(ctx context.Context) error {
		limit := p.Options.SearchLimit
		if limit <= 0 {
			limit = 10
		}
		var err error
		results, err = p.Search.Search(ctx, res.Topic, limit)
		if err == nil {
			log.Debug("search results", "count", len(results))
		}
		return err
	})
	if err != nil {
		return res, err
	}

	err = p.stage(ctx, log, res, StageSelect, func(ctx context.Context) error {
		src, err := p.Selector.SelectBlogPost(ctx, results)
		res.Source = src
		return err
	})
	if err != nil {
		return res, err
	}

	err = p.stage(ctx, log, res, StageScrape, func(ctx context.Context) error {
		a, err := p.Scraper.Scrape(ctx, res.Source.Link)
		if err == nil && strings.TrimSpace(a.Text) == "" {
			err = scraper.ErrNoContent
		}
		if err == nil {
			res.Article = a
		}
		return err
	})
	if err != nil {
		return res, err
	}

	return res, p.generate(ctx, log, res)
}

// RunWithText generates an article for topic from reference text supplied
// by the caller, skipping search and scrape. source labels the text.
func (p *Pipeline) RunWithText(ctx context.Context, topic, text, source string) (*Result, error) {
	if err := p.validate(false); err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic) == "" {
		return nil, prompt.ErrEmptyTopic
	}

	res := newResult(topic, p.Options.DryRun)
	defer func() { res.Duration = time.Since(res.StartedAt) }()
	res.Article = &scraper.Article{URL: source, Text: text, Extractor: "file"}
	log := p.logger().With("run_id", res.RunID)
	log.Info("starting run from reference text", "topic", res.Topic, "source", source, "dry_run", res.DryRun)

	return res, p.generate(ctx, log, res)
}

// generate runs the stages shared by both entry points.
func (p *Pipeline) generate(ctx context.Context, log *slog.Logger, res *Result) error {
	err := p.stage(ctx, log, res, StageExtract, func(ctx context.Context) error {
		ks, err := p.Extractor.Extract(res.Article.Text)
		if err != nil {
			return err
		}
		res.Keywords = ks
		res.KeywordSummary = p.Extractor.Config().Format.Render(ks)

		var words, phrases int
		for _, k := range ks {
			if k.Kind == keywords.KindPhrase {
				phrases++
			} else {
				words++
			}
		}
		metrics.SetKeywords(words, phrases)
		log.Debug("keywords extracted", "words", words, "phrases", phrases)
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, log, res, StagePrompt, func(ctx context.Context) error {
		msgs, err := prompt.Build(res.Topic, res.KeywordSummary, p.Options.MinLength)
		res.Prompt = msgs
		return err
	})
	if err != nil {
		return err
	}

	if p.Options.DryRun {
		log.Info("dry run, skipping generation")
		return nil
	}

	res.Model = p.LLM.Name()
	err = p.stage(ctx, log, res, StageGenerate, func(ctx context.Context) error {
		text, err := p.LLM.Complete(ctx, res.Prompt)
		if err == nil {
			res.Generated = text
			metrics.CompletionChars.WithLabelValues(providerLabels(res.Model)...).Observe(float64(len([]rune(text))))
		}
		return err
	})
	if err != nil {
		return err
	}

	cov := analyzer.Measure(res.Generated, res.Keywords)
	res.Coverage = &cov
	metrics.KeywordCoverage.Set(cov.Ratio())

	log.Info("run complete", "model", res.Model, "chars", len(res.Generated), "keywords_used", cov.Used, "keywords_total", cov.Total)
	return nil
}

func (p *Pipeline) stage(ctx context.Context, log *slog.Logger, res *Result, s Stage, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s, Err: err}
	}

	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)

	res.Timings = append(res.Timings, Timing{Stage: s, Duration: d})
	metrics.ObserveStage(string(s), d, err)

	if err != nil {
		log.Error("stage failed", "stage", s, "duration", d, "err", err)
		return &StageError{Stage: s, Err: err}
	}
	log.Info("stage complete", "stage", s, "duration", d)
	return nil
}

// providerLabels splits "backend/model" into metric labels.
func providerLabels(name string) []string {
	backend, model, ok := strings.Cut(name, "/")
	if !ok {
		return []string{name, ""}
	}
	return []string{backend, model}
}

// IsStage reports whether err ended a run at stage s.
func IsStage(err error, s Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == s
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/FranksOps/scribe/internal/llm"
	"github.com/FranksOps/scribe/internal/pipeline"
	"github.com/FranksOps/scribe/internal/report"
	"github.com/FranksOps/scribe/internal/serp"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	referenceFile string
	outputFormat  string
	out           string
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate TOPIC...",
		Short: "Generate an article for a topic",
		Long: `Generate searches for TOPIC, scrapes the first suitable blog post, extracts
its keywords and asks the configured model for a new article.

With --reference-file the search and scrape stages are skipped and the
keywords come from the given file instead.`,
		Args: cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		return a.generate(cmd, strings.Join(args, " "), opts)
	})

	f := cmd.Flags()
	f.StringVar(&opts.referenceFile, "reference-file", "", "extract keywords from this file instead of a scraped post")
	f.StringVarP(&opts.outputFormat, "output-format", "o", "text", "report format: text, json, markdown or html")
	f.StringVar(&opts.out, "out", "", "write the report to this file instead of stdout")
	f.Bool("dry-run", false, "stop after the prompt is built")
	f.String("model", "", "model name")
	f.String("provider", "", "llm backend: openai or ollama")
	f.Int("min-length", 0, "minimum article length in characters")
	f.Int("limit", 0, "number of search results to consider")
	a.bind(f, map[string]string{
		"pipeline.dry_run":      "dry-run",
		"pipeline.min_length":   "min-length",
		"pipeline.search_limit": "limit",
		"llm.model":             "model",
		"llm.provider":          "provider",
	})
	return cmd
}

func (a *app) generate(cmd *cobra.Command, topic string, opts generateOptions) error {
	cfg := a.cfg
	format, err := report.ParseFormat(opts.outputFormat)
	if err != nil {
		return err
	}
	if opts.referenceFile == "" {
		if err := cfg.ValidateSearch(); err != nil {
			return err
		}
	}

	p := &pipeline.Pipeline{Options: cfg.Pipeline, Logger: a.logger}
	if !cfg.Pipeline.DryRun {
		if err := cfg.ValidateLLM(); err != nil {
			return err
		}
		if p.LLM, err = llm.New(cfg.LLM, a.logger); err != nil {
			return err
		}
	}

	var res *pipeline.Result
	var runErr error
	if opts.referenceFile != "" {
		text, err := os.ReadFile(opts.referenceFile)
		if err != nil {
			return fmt.Errorf("failed to read reference file: %w", err)
		}
		if p.Extractor, err = a.extractor(keywords.ReferenceFileConfig()); err != nil {
			return err
		}
		res, runErr = p.RunWithText(cmd.Context(), topic, string(text), opts.referenceFile)
	} else {
		f, err := a.fetcher()
		if err != nil {
			return err
		}
		if p.Search, err = a.searchProvider(); err != nil {
			return err
		}
		if p.Extractor, err = a.extractor(cfg.Keywords.Config); err != nil {
			return err
		}
		p.Selector = serp.NewSelector(cfg.Search.Selector, f, a.logger)
		p.Scraper = a.articleScraper(f)
		res, runErr = p.Run(cmd.Context(), topic)
	}

	// a failed run still reports the stages that completed
	if res == nil {
		return runErr
	}
	return errors.Join(runErr, a.writeReport(cmd.OutOrStdout(), opts.out, format, res))
}

func (a *app) writeReport(stdout io.Writer, path string, format report.Format, res *pipeline.Result) error {
	if path == "" {
		return report.Write(stdout, format, res)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := report.Write(f, format, res); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	a.logger.Info("report written", "path", path, "format", format)
	return nil
}

// Package cli holds the scribe command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/FranksOps/scribe/internal/config"
	"github.com/FranksOps/scribe/internal/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the scribe command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "scribe",
		Short: "Generate SEO blog articles from a topic",
		Long: `Scribe searches the web for a topic, picks a reference blog post, extracts
its keywords and asks a language model for a new article built around them.

Example usage:
  scribe generate "web design"                    # full run
  scribe generate "web design" --dry-run -o json  # stop after the prompt
  scribe generate "seo" --reference-file notes.md # skip search and scrape
  scribe keywords article.txt                     # keyword summary of a file`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("metrics-textfile", "", "write metrics to this file on exit")
	pf.String("metrics-pushgateway", "", "push metrics to this Pushgateway on exit")
	a.bind(pf, map[string]string{
		"log.level":           "log-level",
		"log.format":          "log-format",
		"metrics.textfile":    "metrics-textfile",
		"metrics.pushgateway": "metrics-pushgateway",
	})

	root.AddCommand(
		newGenerateCommand(a),
		newKeywordsCommand(a),
		newSearchCommand(a),
		newScrapeCommand(a),
	)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// bind maps config keys to flags so a set flag overrides file and
// environment values.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	return nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// runE wraps a command body so metrics are flushed however it ends.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.flushMetrics()
		return fn(cmd, args)
	}
}

func (a *app) flushMetrics() {
	s := a.cfg.Metrics
	if s.Textfile == "" && s.Pushgateway == "" {
		return
	}
	if err := metrics.Flush(s); err != nil {
		a.logger.Warn("failed to flush metrics", "err", err)
	}
}

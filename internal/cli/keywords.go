package cli

import (
	"encoding/json"
	"fmt"

	"github.com/FranksOps/scribe/internal/keywords"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type fileKeywords struct {
	Path     string            `json:"path"`
	Summary  string            `json:"summary"`
	Keywords keywords.Keywords `json:"keywords"`
}

func newKeywordsCommand(a *app) *cobra.Command {
	var (
		article bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "keywords FILE...",
		Short: "Print the keyword summary of text files",
		Long: `Keywords extracts key phrases and frequent words from each FILE and prints
the summary that would be handed to the model. Files are processed in
parallel and printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		kc := keywords.ReferenceFileConfig()
		if article {
			kc = a.cfg.Keywords.Config
		}
		e, err := a.extractor(kc)
		if err != nil {
			return err
		}

		results := make([]fileKeywords, len(args))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(4)
		for i, path := range args {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				summary, ks, err := e.ExtractFile(path)
				if err != nil {
					return err
				}
				results[i] = fileKeywords{Path: path, Summary: summary, Keywords: ks}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		for i, r := range results {
			if len(results) > 1 {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "==> %s <==\n", r.Path)
			}
			fmt.Fprintln(out, r.Summary)
		}
		return nil
	})

	f := cmd.Flags()
	f.BoolVar(&article, "article", false, "use the scraped-article settings instead of the reference-file ones")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	f.String("format", "", "summary format: ranked or tuples")
	a.bind(f, map[string]string{"keywords.format": "format"})
	return cmd
}

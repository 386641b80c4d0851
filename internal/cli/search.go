package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/FranksOps/scribe/internal/serp"
	"github.com/spf13/cobra"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		limit   int
		noCheck bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Show search results and the reference post scribe would pick",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		if err := a.cfg.ValidateSearch(); err != nil {
			return err
		}
		provider, err := a.searchProvider()
		if err != nil {
			return err
		}
		if limit <= 0 {
			limit = a.cfg.Pipeline.SearchLimit
		}

		query := strings.Join(args, " ")
		results, err := provider.Search(cmd.Context(), query, limit)
		if err != nil {
			return err
		}

		var checker serp.Checker
		if !noCheck {
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			checker = f
		}
		picked, err := serp.NewSelector(a.cfg.Search.Selector, checker, a.logger).SelectBlogPost(cmd.Context(), results)
		if err != nil && !errors.Is(err, serp.ErrNoBlogPost) {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Query    string        `json:"query"`
				Results  []serp.Result `json:"results"`
				Selected *serp.Result  `json:"selected"`
			}{query, results, picked})
		}

		if len(results) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for i, r := range results {
			mark := " "
			if picked != nil && r.Link == picked.Link {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s %d.\t%s\t%s\n", mark, i+1, r.Title, r.Link)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if picked == nil {
			fmt.Fprintln(out, "\nNo suitable blog post found.")
		}
		return nil
	})

	f := cmd.Flags()
	f.IntVarP(&limit, "limit", "n", 0, "number of results (default from config)")
	f.BoolVar(&noCheck, "no-check", false, "skip the reachability check of candidates")
	f.BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

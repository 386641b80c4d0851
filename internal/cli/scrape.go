package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scrape URL",
		Short: "Print the article text scribe extracts from a page",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		f, err := a.fetcher()
		if err != nil {
			return err
		}
		article, err := a.articleScraper(f).Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(article)
		}
		if article.Title != "" {
			fmt.Fprintf(out, "# %s\n\n", article.Title)
		}
		fmt.Fprintln(out, article.Text)
		return nil
	})

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/smartnews/internal/models"
)

func newVerifyCmd(c *cli) *cobra.Command {
	var article models.Article

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fact-check one article",
		Long: `Cross-reference an article against independent sources.

Examples:
  newsctl verify --title "RBI cuts repo rate" --source "Mint" --url https://...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if article.Title == "" {
				return errors.New("--title is required")
			}

			result := c.app.FactCheck.Verify(cmd.Context(), article)

			out := cmd.OutOrStdout()
			if c.json {
				return writeJSON(out, result)
			}

			fmt.Fprintf(out, "status: %s\n%s\n", result.Status, result.Explanation)
			for _, src := range result.Sources {
				fmt.Fprintf(out, "  - %s\n", src)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&article.Title, "title", "", "article headline")
	cmd.Flags().StringVar(&article.Source, "source", "", "publisher name")
	cmd.Flags().StringVar(&article.Summary, "summary", "", "article summary")
	cmd.Flags().StringVar(&article.URL, "url", "", "article URL")
	return cmd
}

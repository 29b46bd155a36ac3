package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/smartnews/internal/models"
)

func newFeedCmd(c *cli) *cobra.Command {
	var (
		interests []string
		region    string
		filter    string
		reader    string
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Fetch a personalized news batch",
		Long: `Fetch one personalized batch for a reader profile.

Examples:
  newsctl feed                              # Default reader profile
  newsctl feed --interest Sports --interest Health
  newsctl feed --filter verified --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := c.app.Profiles.Get(ctx, reader)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}

			if len(interests) > 0 {
				parsed := make([]models.Category, 0, len(interests))
				for _, raw := range interests {
					cat, ok := models.ParseCategory(raw)
					if !ok {
						return fmt.Errorf("unknown category %q", raw)
					}
					parsed = append(parsed, cat)
				}
				p.Interests = parsed
			}
			if region != "" {
				p.Location = &models.Location{Region: region}
			}

			resp := c.app.Feed.Refresh(ctx, reader, p)
			resp.Articles = models.ParseFeedFilter(filter).Apply(resp.Articles)
			resp.TotalCount = len(resp.Articles)

			out := cmd.OutOrStdout()
			if c.json {
				return writeJSON(out, resp)
			}

			fmt.Fprintf(out, "status: %s (%d articles)\n", resp.Status, resp.TotalCount)
			for _, a := range resp.Articles {
				origin := "global"
				if a.IsIndian {
					origin = "india"
				}
				fmt.Fprintf(out, "\n[%s] %s\n", a.Category, a.Title)
				fmt.Fprintf(out, "  %s | %s | credibility %d | match %d\n", a.Source, origin, a.CredibilityScore, a.SimilarityScore)
				if s := strings.TrimSpace(a.Summary); s != "" {
					fmt.Fprintf(out, "  %s\n", s)
				}
				fmt.Fprintf(out, "  %s\n", a.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&interests, "interest", nil, "override profile interests (repeatable)")
	cmd.Flags().StringVar(&region, "region", "", "override the reader region")
	cmd.Flags().StringVar(&filter, "filter", "latest", "latest, indian, international or verified")
	cmd.Flags().StringVar(&reader, "reader", "default", "reader profile id")
	return cmd
}

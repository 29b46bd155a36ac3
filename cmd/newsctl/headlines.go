package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/smartnews/internal/models"
)

func newHeadlinesCmd(c *cli) *cobra.Command {
	var (
		region string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "headlines",
		Short: "Fetch the configured RSS wire headlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.Headlines == nil {
				return errors.New("headlines are disabled (HEADLINES_ENABLED=false)")
			}
			if err := c.app.Headlines.Refresh(cmd.Context()); err != nil {
				return err
			}

			items := c.app.Headlines.Headlines(models.Region(region), limit)

			out := cmd.OutOrStdout()
			if c.json {
				return writeJSON(out, items)
			}
			for _, h := range items {
				fmt.Fprintf(out, "%s  [%s] %s (%s)\n", h.PublishedAt.Format("Jan 02 15:04"), h.Category, h.Title, h.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "india or global")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of headlines")
	return cmd
}

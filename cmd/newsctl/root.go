package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/smartnews/internal/app"
)

// cli carries the lazily built application between commands.
type cli struct {
	build func() (*app.App, error)
	app   *app.App
	json  bool
}

func newRootCmd(build func() (*app.App, error)) *cobra.Command {
	c := &cli{build: build}

	root := &cobra.Command{
		Use:   "newsctl",
		Short: "SmartNews operator CLI",
		Long: `newsctl runs one-shot SmartNews operations against the configured model.

Configuration is read from the environment and an optional .env file
(GEMINI_API_KEY, AI_MODEL, AI_TIMEOUT, PROFILE_STORE, ...).

Example usage:
  newsctl feed --interest Technology --region Mumbai
  newsctl verify --title "RBI cuts repo rate" --source "Mint"
  newsctl chat "What happened in Parliament today?"
  newsctl headlines --region india`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return nil
			}
			a, err := c.build()
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Shutdown(context.Background())
		},
	}

	root.PersistentFlags().BoolVar(&c.json, "json", false, "output as JSON")

	root.AddCommand(
		newFeedCmd(c),
		newVerifyCmd(c),
		newChatCmd(c),
		newHeadlinesCmd(c),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

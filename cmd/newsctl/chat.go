package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnrirwin/smartnews/internal/auth"
	"github.com/johnrirwin/smartnews/internal/models"
)

func newChatCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the news assistant",
		Long: `Ask one question, or start an interactive session when no question is given.
An empty line or "exit" ends the session.

Examples:
  newsctl chat "Explain the new data protection bill"
  newsctl chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := c.app.Chat.Open(auth.DefaultReaderID)
			defer c.app.Chat.Close(session.ID(), auth.DefaultReaderID)

			out := cmd.OutOrStdout()

			if len(args) > 0 {
				reply, err := session.Send(cmd.Context(), strings.Join(args, " "), nil)
				if err != nil {
					return err
				}
				return printTurn(c, out, reply)
			}

			fmt.Fprintln(out, session.Transcript()[0].Text)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" || line == "exit" {
					return nil
				}
				reply, err := session.Send(cmd.Context(), line, nil)
				if err != nil {
					return err
				}
				if err := printTurn(c, out, reply); err != nil {
					return err
				}
			}
		},
	}
}

func printTurn(c *cli, out io.Writer, turn models.ChatTurn) error {
	if c.json {
		return writeJSON(out, turn)
	}
	_, err := fmt.Fprintln(out, turn.Text)
	return err
}

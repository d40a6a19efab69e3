package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/markdown"
)

const defaultSession = "default"

func newAskCmd(c *cli) *cobra.Command {
	var (
		session string
		html    bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question about the indexed files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			reply, err := a.Manager.Session(session).Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), reply, html)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", defaultSession, "Chat session id")
	cmd.Flags().BoolVar(&html, "html", false, "Render the answer as HTML")
	return cmd
}

func newChatCmd(c *cli) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively until EOF",
		Long: `Ask questions interactively until EOF.

Every line read from stdin is one question. Without --session a new session
id is generated and printed so the conversation can be resumed later.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if session == "" {
				session = uuid.NewString()
			}

			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s\n", session)
			s := a.Manager.Session(session)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}

				reply, err := s.Ask(ctx, question)
				if err != nil {
					return err
				}
				// A failed turn is shown and the chat goes on.
				fmt.Fprintln(out, reply.Text)
				if ctx.Err() != nil {
					return ctx.Err()
				}
			}
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Chat session id (default: a new one)")
	return cmd
}

// printReply writes the answer. A failed turn is returned as an error with the
// user-facing message so the exit status reflects it.
func printReply(w io.Writer, reply *assistant.Reply, html bool) error {
	if reply.Err != nil {
		return errors.New(reply.Text)
	}
	if !html {
		fmt.Fprintln(w, reply.Text)
		return nil
	}
	rendered, err := markdown.RenderHTML(reply.Text)
	if err != nil {
		return fmt.Errorf("render answer: %w", err)
	}
	fmt.Fprint(w, rendered)
	return nil
}

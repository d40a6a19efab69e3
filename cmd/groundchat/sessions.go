package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFilesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List indexed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := a.Manager.Files(ctx)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>...",
		Short: "Remove files from the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, name := range args {
				if err := a.Manager.Delete(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			}
			return nil
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			turns, err := a.Manager.Session(session).History(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range turns {
				fmt.Fprintf(out, "[%s] %s: %s\n", t.At.Format("2006-01-02 15:04:05"), t.Role, t.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", defaultSession, "Chat session id")
	return cmd
}

func newClearCmd(c *cli) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Manager.Session(session).Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared session %s\n", session)
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", defaultSession, "Chat session id")
	return cmd
}

func newSessionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions with their labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.Manager.Sessions(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				label, err := a.Manager.Session(id).Label(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, label)
			}
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/journal"
	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/provider"
)

func createCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new conversation without joining it",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, dir, err := newClient()
			if err != nil {
				return err
			}
			rec, err := client.Create(cmd.Context(), name)
			if err != nil {
				return err
			}
			record(dir, rec.ID, journal.EventCreated, nil)
			printRecord(rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "conversation name (default is timestamped)")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Show one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			rec, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				var notFound *provider.NotFoundError
				if errors.As(err, &notFound) {
					return fmt.Errorf("conversation %s not found", args[0])
				}
				return err
			}
			printRecord(rec)
			return nil
		},
	}
}

func endCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <conversation-id>",
		Short: "End a conversation, keeping its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, dir, err := newClient()
			if err != nil {
				return err
			}
			if err := client.End(cmd.Context(), args[0]); err != nil {
				detail := err.Error()
				record(dir, args[0], journal.EventEndFailed, &detail)
				var unsupported *provider.EndUnsupportedError
				if errors.As(err, &unsupported) {
					return fmt.Errorf("%w\nuse 'parley delete %s' to remove it permanently", err, args[0])
				}
				return err
			}
			record(dir, args[0], journal.EventEnded, nil)
			fmt.Printf("ended %s\n", args[0])
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Permanently delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, dir, err := newClient()
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			record(dir, args[0], journal.EventDeleted, nil)
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

// record appends a lifecycle event to the local journal. The journal is an
// aid, not a ledger, so failures are logged and swallowed.
func record(dir, conversationID, event string, detail *string) {
	j, err := journal.Open(config.JournalPath(dir))
	if err != nil {
		logger.Warn("could not open journal", "error", err)
		return
	}
	defer j.Close()
	if err := j.Append(conversationID, event, detail); err != nil {
		logger.Warn("could not record journal entry", "error", err)
	}
}

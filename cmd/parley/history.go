package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/journal"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [conversation-id]",
		Short: "Show locally recorded lifecycle events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}
			j, err := journal.Open(config.JournalPath(dir))
			if err != nil {
				return err
			}
			defer j.Close()

			var entries []*journal.Entry
			if len(args) == 1 {
				entries, err = j.ListByConversation(args[0])
			} else {
				entries, err = j.Recent(limit)
			}
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("no history")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-28s %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.ConversationID, e.Event)
				if e.Detail != nil {
					line += "  (" + *e.Detail + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

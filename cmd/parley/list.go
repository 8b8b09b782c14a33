package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/provider"
	"github.com/parley-dev/parley/internal/roster"
)

func listCmd() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClient()
			if err != nil {
				return err
			}
			repo := roster.New(client)

			var records []provider.Record
			if activeOnly {
				records, err = repo.Active(cmd.Context())
			} else {
				records, err = repo.Recent(cmd.Context())
			}
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("no conversations")
				return nil
			}
			printRecords(records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "only show active conversations")
	return cmd
}

func printRecords(records []provider.Record) {
	fmt.Printf("%-28s %-12s %-20s %s\n", "ID", "STATUS", "CREATED", "NAME")
	for _, rec := range records {
		created := ""
		if t := rec.CreatedTime(); !t.IsZero() {
			created = t.Local().Format("2006-01-02 15:04:05")
		}
		marker := " "
		if roster.IsActive(rec) {
			marker = "*"
		}
		fmt.Printf("%-28s %s%-11s %-20s %s\n", rec.ID, marker, rec.Status, created, rec.Name)
	}
}

func printRecord(rec provider.Record) {
	fmt.Printf("id:      %s\n", rec.ID)
	fmt.Printf("name:    %s\n", rec.Name)
	fmt.Printf("status:  %s\n", rec.Status)
	if t := rec.CreatedTime(); !t.IsZero() {
		fmt.Printf("created: %s\n", t.Local().Format(time.RFC3339))
	}
	if rec.URL != "" {
		fmt.Printf("url:     %s\n", rec.URL)
	}
}

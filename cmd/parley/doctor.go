package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/provider"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}
			creds, err := config.Load(dir)
			if err != nil {
				return err
			}

			fmt.Println("parley doctor")
			fmt.Println()

			fmt.Println("Credentials:")
			fmt.Printf("  api_key:     %s\n", presence(creds.APIKey))
			fmt.Printf("  replica_id:  %s\n", presence(creds.ReplicaID))
			fmt.Printf("  persona_id:  %s\n", presence(creds.PersonaID))
			fmt.Println()

			fmt.Println("Config:")
			fmt.Printf("  dir:      %s\n", dir)
			fmt.Printf("  journal:  %s\n", config.JournalPath(dir))
			fmt.Println()

			fmt.Println("API:")
			if creds.APIKey == "" {
				fmt.Println("  skipped (no API key)")
				return nil
			}
			client := provider.New(creds)
			count, err := client.TestConnection(cmd.Context())
			if err != nil {
				fmt.Printf("  unreachable: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("  reachable (%d items visible)\n", count)
			return nil
		},
	}
}

func presence(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored credentials",
	}
	cmd.AddCommand(configSetCmd(), configShowCmd())
	return cmd
}

func configSetCmd() *cobra.Command {
	var apiKey, replicaID, personaID string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store credentials in the config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}
			creds, err := config.Load(dir)
			if err != nil {
				return err
			}

			if apiKey != "" {
				creds.APIKey = apiKey
			}
			if replicaID != "" {
				creds.ReplicaID = replicaID
			}
			if personaID != "" {
				creds.PersonaID = personaID
			}

			if err := config.Save(dir, creds); err != nil {
				return err
			}
			fmt.Printf("saved credentials to %s\n", dir)
			if !creds.Complete() {
				fmt.Println("note: api_key, replica_id and persona_id are all required to start conversations")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Tavus API key")
	cmd.Flags().StringVar(&replicaID, "replica-id", "", "replica to converse with")
	cmd.Flags().StringVar(&personaID, "persona-id", "", "persona driving the replica")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (values redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}
			creds, err := config.Load(dir)
			if err != nil {
				return err
			}
			fmt.Printf("dir:         %s\n", dir)
			fmt.Printf("api_key:     %s\n", redact(creds.APIKey))
			fmt.Printf("replica_id:  %s\n", orUnset(creds.ReplicaID))
			fmt.Printf("persona_id:  %s\n", orUnset(creds.PersonaID))
			return nil
		},
	}
}

func redact(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

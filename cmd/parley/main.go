package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/provider"
)

var (
	flagDir      string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	root := &cobra.Command{
		Use:   "parley",
		Short: "parley — interactive video conversation sessions from the terminal",
		Long:  "Creates, joins, and manages interactive video conversations against the Tavus API, surfacing the conversation URL for a browser or webview to open.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(flagLogLevel, flagLogFile)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagDir, "dir", "", "config directory (default ~/.parley)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also append logs to this file")

	root.AddCommand(
		doctorCmd(),
		listCmd(),
		createCmd(),
		startCmd(),
		joinCmd(),
		endCmd(),
		deleteCmd(),
		showCmd(),
		historyCmd(),
		configCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configDir() (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	return config.UserConfigDir()
}

// newClient loads credentials and builds the API client. Commands that need
// credentials fail later with a targeted message, so a partial config is not
// an error here.
func newClient() (*provider.Client, string, error) {
	dir, err := configDir()
	if err != nil {
		return nil, "", err
	}
	creds, err := config.Load(dir)
	if err != nil {
		return nil, "", err
	}
	return provider.New(creds), dir, nil
}

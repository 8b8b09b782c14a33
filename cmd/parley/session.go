package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/journal"
	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/roster"
	"github.com/parley-dev/parley/internal/session"
	"github.com/parley-dev/parley/internal/surface"
)

func startCmd() *cobra.Command {
	var endOnExit bool
	var name string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create a conversation and hold the session open",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, "", name, endOnExit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "conversation name (default is timestamped)")
	cmd.Flags().BoolVar(&endOnExit, "end-on-exit", false, "end the conversation remotely on exit")
	return cmd
}

func joinCmd() *cobra.Command {
	var endOnExit bool

	cmd := &cobra.Command{
		Use:   "join <conversation-id>",
		Short: "Join an existing conversation and hold the session open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, args[0], "", endOnExit)
		},
	}

	cmd.Flags().BoolVar(&endOnExit, "end-on-exit", false, "end the conversation remotely on exit")
	return cmd
}

// runSession wires the session manager, the surface controller and the
// headless host together, starts or joins a conversation, then holds it
// open until interrupted.
func runSession(cmd *cobra.Command, id, name string, endOnExit bool) error {
	client, dir, err := newClient()
	if err != nil {
		return err
	}

	mgr := session.NewManager(client, roster.New(client))
	host := &surface.LogHost{OnShow: func(url string) {
		fmt.Printf("conversation ready, open:\n\n  %s\n\n", url)
	}}
	ctrl := surface.New(host, mgr)
	mgr.SetSurface(ctrl)
	defer ctrl.ReleaseAll()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Credential edits take effect without restarting the session.
	go func() {
		if err := config.Watch(ctx, dir, func(creds *config.Credentials) {
			client.SetCredentials(creds)
		}); err != nil && ctx.Err() == nil {
			logger.Debug("credential watch unavailable", "error", err)
		}
	}()

	unsubscribe := mgr.Subscribe(func(st session.State) {
		if st.Err != "" {
			fmt.Fprintf(os.Stderr, "! %s\n", st.Err)
		}
	})
	defer unsubscribe()

	if id == "" {
		err = mgr.Start(ctx, name)
	} else {
		err = mgr.Join(ctx, id)
	}
	if err != nil {
		return err
	}

	st := mgr.Snapshot()
	event := journal.EventJoined
	if id == "" {
		event = journal.EventCreated
	}
	record(dir, st.ConversationID, event, nil)

	fmt.Println("session active, press Ctrl-C to leave")
	<-ctx.Done()
	stop()

	convID := mgr.Snapshot().ConversationID
	mgr.EndLocal()
	fmt.Println("\nleft the conversation")

	if endOnExit && convID != "" {
		endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.End(endCtx, convID); err != nil {
			detail := err.Error()
			record(dir, convID, journal.EventEndFailed, &detail)
			return fmt.Errorf("end conversation %s: %w", convID, err)
		}
		record(dir, convID, journal.EventEnded, nil)
		fmt.Printf("ended %s\n", convID)
	}
	return nil
}

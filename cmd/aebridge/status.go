package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/aebridge/internal/storage"
	"github.com/dshills/aebridge/pkg/types"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the host connection and summarize the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			client, err := a.connect(ctx)
			if err != nil {
				printConnection(out, types.ConnectionStatus{Error: err.Error()})
			} else {
				defer client.Close()
				printConnection(out, client.GetConnectionStatus(ctx))
			}

			store, err := a.openJournal()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(out, "Journal:     disabled")
				return nil
			}
			defer store.Close()

			stats, err := store.GetStats(ctx)
			if err != nil {
				return fmt.Errorf("failed to read journal stats: %w", err)
			}
			printJournal(out, a.cfg.JournalPath(), stats)
			return nil
		},
	}
}

func printConnection(w io.Writer, status types.ConnectionStatus) {
	if !status.Connected {
		fmt.Fprintf(w, "Host:        disconnected (%s)\n", status.Error)
		return
	}
	fmt.Fprintln(w, "Host:        connected")
	if info := status.Project; info != nil {
		fmt.Fprintf(w, "Project:     %s (%s items)\n", info.Name, humanize.Comma(int64(info.NumItems)))
		if info.ActiveComp != "" {
			fmt.Fprintf(w, "Active comp: %s\n", info.ActiveComp)
		}
	}
}

func printJournal(w io.Writer, path string, stats *storage.Stats) {
	fmt.Fprintf(w, "Journal:     %s (%s, schema %s)\n", path, humanize.Bytes(uint64(stats.SizeBytes)), stats.SchemaVersion)
	fmt.Fprintf(w, "Replacements: %d (%d failed, %d reverted)\n", stats.Replacements, stats.Failed, stats.Reverted)
	fmt.Fprintf(w, "Searches:    %d\n", stats.Searches)
	if !stats.LastReplacementAt.IsZero() {
		fmt.Fprintf(w, "Last write:  %s\n", humanize.Time(stats.LastReplacementAt))
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/aebridge/internal/storage"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the aebridge version",
		// Version needs no host or journal, so skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "aebridge %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			_, err := fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			return err
		},
	}
}

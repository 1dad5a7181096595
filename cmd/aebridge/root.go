package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/aebridge/internal/bridge"
	"github.com/dshills/aebridge/internal/config"
	"github.com/dshills/aebridge/internal/logging"
	"github.com/dshills/aebridge/internal/storage"
)

// app carries what every subcommand needs after flags are resolved.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *logging.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}
	cmd := &cobra.Command{
		Use:           "aebridge",
		Short:         "Search and replace across expressions in a compositing project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	if err := config.BindFlags(a.v, cmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	cmd.AddCommand(
		newServeCommand(a),
		newStatusCommand(a),
		newSearchCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.LogDir == "" {
		a.logger = logging.NewWriterLogger(os.Stderr, cfg.LogLevel)
		return nil
	}
	a.logger, err = logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	return err
}

func (a *app) retryPolicy() bridge.RetryPolicy {
	return bridge.RetryPolicy{MaxRetries: a.cfg.Retries, BaseDelay: a.cfg.RetryBaseDelay}
}

// connect opens the configured transport and wraps it in a client.
func (a *app) connect(ctx context.Context) (*bridge.Client, error) {
	var (
		transport bridge.Transport
		err       error
	)
	if a.cfg.HostCommand != "" {
		fields := strings.Fields(a.cfg.HostCommand)
		a.logger.Info("starting host process", "command", fields[0])
		transport, err = bridge.StartProcess(ctx, fields[0], fields[1:]...)
	} else {
		a.logger.Info("connecting to host", "url", a.cfg.HostURL)
		transport, err = bridge.DialWebSocket(ctx, a.cfg.HostURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host: %w", err)
	}

	return bridge.New(transport,
		bridge.WithTimeout(a.cfg.Timeout),
		bridge.WithLogger(a.logger),
	), nil
}

// openJournal returns nil when journaling is disabled.
func (a *app) openJournal() (*storage.SQLiteStorage, error) {
	if a.cfg.NoJournal {
		return nil, nil
	}
	if err := os.MkdirAll(a.cfg.DBPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(a.cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, nil
}

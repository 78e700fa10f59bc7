package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	notemerge "github.com/c0deZ3R0/go-note-merge"
	"github.com/c0deZ3R0/go-note-merge/config"
	"github.com/c0deZ3R0/go-note-merge/logging"
	"github.com/c0deZ3R0/go-note-merge/storage"
	"github.com/c0deZ3R0/go-note-merge/storage/postgres"
	"github.com/c0deZ3R0/go-note-merge/storage/sqlite"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	configPath string
	logLevel   string

	config *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "notemerge",
		Short: "Three-way merge of concurrent note edits",
		Long: `notemerge reconciles two concurrent edit sessions of a note.

The "primary" session wins conflicts; the "secondary" session's edits are
kept wherever they do not collide. Notes can be merged file to file with
"merge", or stored in SQLite or PostgreSQL and merged in place with "apply".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Configuration file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newMergeCmd(a),
		newImportCmd(a),
		newApplyCmd(a),
		newShowCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// setup loads the configuration and installs the logger.
func (a *app) setup(logOut io.Writer) error {
	bootstrap := logging.NewLoggerTo(logOut, logging.ApplyEnv(logging.DefaultConfig)).
		WithComponent(logging.Component("config"))

	loader := config.NewLoader(
		config.WithEnv(),
		config.WithLogger(bootstrap),
		config.WithWatcher(config.NewLoggingWatcher(bootstrap)),
	)

	var err error
	if a.configPath == "" {
		a.config, err = loader.Accept(config.Default())
	} else {
		a.config, err = loader.LoadFromFile(a.configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		a.config.Logging.Level = a.logLevel
	}
	a.logger = logging.NewLoggerTo(logOut, a.config.Logging)
	logging.SetDefault(a.logger)
	return nil
}

// openStore opens the configured note store.
func (a *app) openStore() (storage.NoteStore, error) {
	sc := a.config.Store
	switch sc.Driver {
	case config.DriverSQLite:
		return sqlite.New(&sqlite.Config{
			DataSourceName: sc.DSN,
			EnableWAL:      sc.EnableWAL,
			TablePrefix:    sc.TablePrefix,
			MaxOpenConns:   sc.MaxOpenConns,
			Logger:         a.logger.WithComponent(logging.Component("storage/sqlite")),
		})
	case config.DriverPostgres:
		return postgres.New(&postgres.Config{
			ConnectionString: sc.DSN,
			TablePrefix:      sc.TablePrefix,
			MaxOpenConns:     sc.MaxOpenConns,
			Logger:           a.logger.WithComponent(logging.Component("storage/postgres")),
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

// withService opens the store, runs fn and closes everything.
func (a *app) withService(ctx context.Context, fn func(*notemerge.Service) error) error {
	store, err := a.openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	svc, err := notemerge.NewService(
		notemerge.WithStore(store),
		notemerge.WithLogger(a.logger),
		notemerge.WithHistoryLimit(a.config.Merge.HistoryLimit),
	)
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("close service", slog.Any("error", err))
		}
	}()

	return fn(svc)
}

// openInput opens path for reading; "-" or "" is stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// writeOutput writes through fn to path; "-" or "" is stdout.
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

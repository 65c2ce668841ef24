// Package keyctl implements the storage administration CLI: schema
// migration, key sequence provisioning and account bootstrap.
package keyctl

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dmitrijs2005/lifelog/internal/logging"
	"github.com/dmitrijs2005/lifelog/internal/server/config"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver  string
	DSN     string
	Verbose bool

	cfg *config.Config
}

// NewRootCommand creates the keyctl root command. Flag defaults come from
// the server configuration defaults and environment.
func NewRootCommand() *cobra.Command {
	cfg := config.LoadEnv()
	opts := &RootOptions{cfg: cfg}

	cmd := &cobra.Command{
		Use:   "keyctl",
		Short: "lifelog storage administration",
		Long:  "Applies migrations, manages per-table key sequences and bootstraps accounts.",
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", cfg.DatabaseDriver, "database/sql driver (pgx|sqlite3)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", cfg.DatabaseDSN, "data source name")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewProvisionCommand(opts))
	cmd.AddCommand(NewDeprovisionCommand(opts))
	cmd.AddCommand(NewCreateAccountCommand(opts))

	return cmd
}

type session struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func (s *session) Close() error {
	return s.db.Close()
}

func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewJSONLogger(cmd.ErrOrStderr(), level)

	rm, err := repomanager.NewSQLRepositoryManager(o.Driver, logger)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(o.Driver, o.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &session{db: db, rm: rm, logger: logger}, nil
}

package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/logging"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/migrations"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/profiles"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager serves PostgreSQL (pgx) and SQLite (sqlite3).
type SQLRepositoryManager struct {
	dialect keys.Dialect
	seq     *keys.Sequencer
	logger  logging.Logger
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLRepository(db, m.seq)
}

// Profiles returns a profiles.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewSQLRepository(db, m.seq)
}

func (m *SQLRepositoryManager) Dialect() keys.Dialect {
	return m.dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations and then provisions the key
// sequences of all managed tables.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}

	p := keys.NewProvisioner(db, m.dialect, m.logger)
	if err := p.ProvisionAll(ctx, keys.ManagedTables); err != nil {
		return fmt.Errorf("provision keys: %w", err)
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for the given
// database/sql driver name.
func NewSQLRepositoryManager(driver string, logger logging.Logger) (RepositoryManager, error) {
	d, err := keys.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: d, seq: keys.NewSequencer(d), logger: logger}, nil
}

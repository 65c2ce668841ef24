package keys

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/logging"
)

// Provisioner installs and removes key sequences.
type Provisioner struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
}

func NewProvisioner(db *sql.DB, dialect Dialect, logger logging.Logger) *Provisioner {
	return &Provisioner{db: db, dialect: dialect, logger: logger}
}

// Provision makes sure table has its counter and insert rule. Objects that
// already exist are left untouched, so repeated calls are no-ops.
func (p *Provisioner) Provision(ctx context.Context, table string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	seq := SequenceName(table)
	exists, err := p.exists(ctx, p.dialect.SequenceExistsQuery(), seq)
	if err != nil {
		return fmt.Errorf("check sequence %s: %w", seq, err)
	}
	if !exists {
		if err := p.execTx(ctx, p.dialect.CreateSequence(table)); err != nil {
			return fmt.Errorf("create sequence %s: %w", seq, err)
		}
		p.logger.Info(ctx, "sequence created", "table", table, "sequence", seq)
	}

	trg := TriggerName(table)
	exists, err = p.exists(ctx, p.dialect.TriggerExistsQuery(), trg)
	if err != nil {
		return fmt.Errorf("check trigger %s: %w", trg, err)
	}
	if !exists {
		if err := p.execTx(ctx, p.dialect.CreateTrigger(table)); err != nil {
			return fmt.Errorf("create trigger %s: %w", trg, err)
		}
		p.logger.Info(ctx, "trigger created", "table", table, "trigger", trg)
	}

	return nil
}

// Deprovision drops the insert rule, then the counter. Failures of the
// individual drops are logged and ignored; only an invalid table name is
// reported.
func (p *Provisioner) Deprovision(ctx context.Context, table string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	stmts := append(p.dialect.DropTrigger(table), p.dialect.DropSequence(table)...)
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			p.logger.Warn(ctx, "deprovision statement failed", "table", table, "statement", stmt, "error", err)
		}
	}
	return nil
}

// ProvisionAll provisions tables in order and stops at the first failure.
func (p *Provisioner) ProvisionAll(ctx context.Context, tables []string) error {
	for _, t := range tables {
		if err := p.Provision(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// DeprovisionAll deprovisions tables in reverse order.
func (p *Provisioner) DeprovisionAll(ctx context.Context, tables []string) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if err := p.Deprovision(ctx, tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provisioner) exists(ctx context.Context, query, name string) (bool, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Provisioner) execTx(ctx context.Context, stmts []string) error {
	return dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

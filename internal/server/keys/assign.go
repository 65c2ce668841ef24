package keys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lifelog/internal/dbx"
)

// Keyed is a row with a surrogate key. Zero means no key yet.
type Keyed interface {
	Key() int64
	SetKey(int64)
}

// AssignKeyIfAbsent sets row's key to next unless the caller already
// supplied one. It reports whether the key was assigned.
func AssignKeyIfAbsent(row Keyed, next int64) bool {
	if row.Key() != 0 {
		return false
	}
	row.SetKey(next)
	return true
}

// Sequencer draws values from a table's counter.
type Sequencer struct {
	dialect Dialect
}

func NewSequencer(dialect Dialect) *Sequencer {
	return &Sequencer{dialect: dialect}
}

// Next advances the counter of table and returns the new value.
func (s *Sequencer) Next(ctx context.Context, db dbx.DBTX, table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	var v int64
	if err := db.QueryRowContext(ctx, s.dialect.NextValueQuery(table)).Scan(&v); err != nil {
		return 0, fmt.Errorf("next value of %s: %w", SequenceName(table), err)
	}
	return v, nil
}

// Assign gives row a key from table's counter if it has none. The counter
// is not touched when the row already carries a key.
func (s *Sequencer) Assign(ctx context.Context, db dbx.DBTX, table string, row Keyed) error {
	if row.Key() != 0 {
		return nil
	}
	next, err := s.Next(ctx, db, table)
	if err != nil {
		return err
	}
	AssignKeyIfAbsent(row, next)
	return nil
}

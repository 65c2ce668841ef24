package keys

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTableName   = errors.New("invalid table name")
	ErrUnsupportedDialect = errors.New("unsupported database driver")
)

// Dialect renders the catalog queries and DDL needed to emulate a key
// sequence on one store. Exists queries take the object name as their only
// argument and return a single count.
type Dialect interface {
	// Name is the database/sql driver name.
	Name() string
	// GooseDialect is the dialect name understood by goose.
	GooseDialect() string

	SequenceExistsQuery() string
	TriggerExistsQuery() string

	CreateSequence(table string) []string
	CreateTrigger(table string) []string
	DropTrigger(table string) []string
	DropSequence(table string) []string

	// NextValueQuery returns one row holding the next counter value.
	NextValueQuery(table string) string
}

// DialectFor picks the dialect matching a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres{}, nil
	case "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, driver)
	}
}

// Postgres uses a real sequence and a plpgsql BEFORE INSERT trigger.
type Postgres struct{}

func (Postgres) Name() string { return "pgx" }

func (Postgres) GooseDialect() string { return "postgres" }

func (Postgres) SequenceExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_class WHERE relkind = 'S' AND relname = $1`
}

func (Postgres) TriggerExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_trigger WHERE NOT tgisinternal AND tgname = $1`
}

// CACHE 1 disables preallocation so values are handed out strictly in order.
func (Postgres) CreateSequence(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE SEQUENCE %s START WITH 1 INCREMENT BY 1 CACHE 1 NO CYCLE`, SequenceName(table)),
	}
}

func (Postgres) CreateTrigger(table string) []string {
	fn := assignFunctionName(table)
	return []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
	IF NEW.id IS NULL THEN
		NEW.id := nextval('%s');
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, fn, SequenceName(table)),
		fmt.Sprintf(`CREATE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW EXECUTE FUNCTION %s()`,
			TriggerName(table), table, fn),
	}
}

func (Postgres) DropTrigger(table string) []string {
	return []string{
		fmt.Sprintf(`DROP TRIGGER %s ON %s`, TriggerName(table), table),
		fmt.Sprintf(`DROP FUNCTION %s()`, assignFunctionName(table)),
	}
}

func (Postgres) DropSequence(table string) []string {
	return []string{fmt.Sprintf(`DROP SEQUENCE %s`, SequenceName(table))}
}

func (Postgres) NextValueQuery(table string) string {
	return fmt.Sprintf(`SELECT nextval('%s')`, SequenceName(table))
}

func assignFunctionName(table string) string { return table + "_id_assign" }

// SQLite has neither sequences nor writable NEW rows. The counter is a
// single-row table and the rule is an AFTER INSERT trigger that patches the
// freshly inserted row through its rowid.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) GooseDialect() string { return "sqlite3" }

func (SQLite) SequenceExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (SQLite) TriggerExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND name = ?`
}

func (SQLite) CreateSequence(table string) []string {
	seq := SequenceName(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (value INTEGER NOT NULL)`, seq),
		fmt.Sprintf(`INSERT INTO %s (value) VALUES (0)`, seq),
	}
}

func (SQLite) CreateTrigger(table string) []string {
	seq := SequenceName(table)
	return []string{
		fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT ON %s FOR EACH ROW WHEN NEW.id IS NULL
BEGIN
	UPDATE %s SET value = value + 1;
	UPDATE %s SET id = (SELECT value FROM %s) WHERE rowid = NEW.rowid;
END`, TriggerName(table), table, seq, table, seq),
	}
}

func (SQLite) DropTrigger(table string) []string {
	return []string{fmt.Sprintf(`DROP TRIGGER %s`, TriggerName(table))}
}

func (SQLite) DropSequence(table string) []string {
	return []string{fmt.Sprintf(`DROP TABLE %s`, SequenceName(table))}
}

func (SQLite) NextValueQuery(table string) string {
	return fmt.Sprintf(`UPDATE %s SET value = value + 1 RETURNING value`, SequenceName(table))
}

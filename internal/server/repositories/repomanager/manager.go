// Package repomanager vends repositories bound to a database handle and
// prepares the schema: goose migrations followed by key sequence
// provisioning for every managed table.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/profiles"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Dialect() keys.Dialect
}

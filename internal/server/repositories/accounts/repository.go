// Package accounts stores account records in the users table.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

type Repository interface {
	// Create inserts acc, drawing its key from the users sequence when it has
	// none. Duplicate username or email yields common.ErrorConflict.
	Create(ctx context.Context, acc *models.Account) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	// FindByLogin matches login exactly against username or email,
	// preferring a username match.
	FindByLogin(ctx context.Context, login string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	// Update rewrites the profile attributes, password hash, active flag and
	// role set of acc.
	Update(ctx context.Context, acc *models.Account) error
	// List returns one page of accounts ordered by p.Sort. An unknown sort
	// key yields common.ErrorValidation.
	List(ctx context.Context, p Page) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
}

// Page selects a window of the users table. Sort names a column, optionally
// prefixed with "-" for descending order; empty means "id".
type Page struct {
	Offset int
	Limit  int
	Sort   string
}

package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/codec"
	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

const selectColumns = `id, sso_subject, username, email, password_hash, full_name, first_name,
		last_name, phone, address, gender, date_of_birth, is_active, last_login, roles`

// SQLRepository works on both PostgreSQL and SQLite.
type SQLRepository struct {
	db  dbx.DBTX
	seq *keys.Sequencer
}

func NewSQLRepository(db dbx.DBTX, seq *keys.Sequencer) *SQLRepository {
	return &SQLRepository{db: db, seq: seq}
}

func (r *SQLRepository) Create(ctx context.Context, acc *models.Account) (*models.Account, error) {
	assigned := acc.ID == 0
	if err := r.seq.Assign(ctx, r.db, keys.TableUsers, acc); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO users (id, sso_subject, username, email, password_hash, full_name, first_name,
		     last_name, phone, address, gender, date_of_birth, is_active, last_login, roles)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 `

	_, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.SSOSubject, acc.Username, acc.Email, acc.PasswordHash, acc.FullName, acc.FirstName,
		acc.LastName, acc.Phone, acc.Address, acc.Gender, codec.Epoch{Time: acc.DateOfBirth},
		codec.IntBool(acc.Active), codec.Epoch{Time: acc.LastLogin}, codec.JSONList[string](acc.Roles))

	if err != nil {
		if assigned {
			acc.ID = 0
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) FindByLogin(ctx context.Context, login string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY CASE WHEN username = $1 THEN 0 ELSE 1 END
		 LIMIT 1`
	return scanAccount(r.db.QueryRowContext(ctx, query, login))
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + selectColumns + ` FROM users WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	query :=
		`UPDATE users SET last_login = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, codec.Epoch{Time: at}, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLRepository) Update(ctx context.Context, acc *models.Account) error {
	query :=
		`UPDATE users SET full_name = $1, first_name = $2, last_name = $3, phone = $4,
		     address = $5, gender = $6, date_of_birth = $7, password_hash = $8,
		     is_active = $9, roles = $10
		 WHERE id = $11
		 `

	res, err := r.db.ExecContext(ctx, query,
		acc.FullName, acc.FirstName, acc.LastName, acc.Phone,
		acc.Address, acc.Gender, codec.Epoch{Time: acc.DateOfBirth}, acc.PasswordHash,
		codec.IntBool(acc.Active), codec.JSONList[string](acc.Roles),
		acc.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

var sortColumns = map[string]string{
	"id":         "id",
	"username":   "username",
	"email":      "email",
	"full_name":  "full_name",
	"last_login": "last_login",
}

func orderBy(sort string) (string, error) {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	if sort == "" {
		sort = "id"
	}
	col, ok := sortColumns[sort]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort key %q", common.ErrorValidation, sort)
	}
	if col == "id" {
		return "id " + dir, nil
	}
	return col + " " + dir + ", id ASC", nil
}

func (r *SQLRepository) List(ctx context.Context, p Page) ([]*models.Account, error) {
	order, err := orderBy(p.Sort)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM users
		 ORDER BY ` + order + `
		 LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	accs := []*models.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accs = append(accs, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accs, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var acc models.Account
	var sso, fullName, firstName, lastName, phone, address, gender sql.NullString
	var dob, lastLogin codec.Epoch
	var active codec.IntBool
	var roles codec.JSONList[string]

	err := row.Scan(&acc.ID, &sso, &acc.Username, &acc.Email, &acc.PasswordHash, &fullName, &firstName,
		&lastName, &phone, &address, &gender, &dob, &active, &lastLogin, &roles)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	acc.SSOSubject = sso.String
	acc.FullName = fullName.String
	acc.FirstName = firstName.String
	acc.LastName = lastName.String
	acc.Phone = phone.String
	acc.Address = address.String
	acc.Gender = gender.String
	acc.DateOfBirth = dob.Time
	acc.Active = bool(active)
	acc.LastLogin = lastLogin.Time
	acc.Roles = []string(roles)

	return &acc, nil
}

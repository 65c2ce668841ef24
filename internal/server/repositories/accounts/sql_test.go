package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lifelog/internal/codec"
	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	nextvalQuery = `^SELECT nextval\('users_seq'\)$`
	insertQuery  = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*sso_subject,.*roles\)\s*VALUES\s*\(\$1,.*\$15\)\s*$`
)

var accountColumns = []string{"id", "sso_subject", "username", "email", "password_hash", "full_name",
	"first_name", "last_name", "phone", "address", "gender", "date_of_birth", "is_active", "last_login", "roles"}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db, keys.NewSequencer(keys.Postgres{})), mock, db
}

func TestCreate_AssignsKeyFromSequence(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 3, 1, 10, 0, 0, 500_000_000, time.UTC)

	mock.ExpectQuery(nextvalQuery).WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(42)))
	mock.ExpectExec(insertQuery).
		WithArgs(int64(42), "", "alice", "alice@example.com", "hash", "", "", "", "", "", "",
			nil, int64(1), codec.EncodeEpoch(now), `["user"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	acc := &models.Account{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Active:       true,
		LastLogin:    now,
		Roles:        []string{models.RoleUser},
	}
	got, err := repo.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("unexpected id: %d", got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(nextvalQuery).WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(7)))
	mock.ExpectExec(insertQuery).WillReturnError(&pgconn.PgError{Code: "23505"})

	acc := &models.Account{Username: "alice", Email: "alice@example.com"}
	_, err := repo.Create(context.Background(), acc)
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
	if acc.ID != 0 {
		t.Fatalf("drawn key must not stick to a failed insert, got %d", acc.ID)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(nextvalQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{Username: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$1\s+ORDER\s+BY.*LIMIT\s+1$`

	rows := sqlmock.NewRows(accountColumns).
		AddRow(int64(5), nil, "alice", "alice@example.com", "hash", "Alice A", nil, nil, nil, nil, nil,
			nil, int64(1), 1700000000.25, `["admin","user"]`)
	mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.FindByLogin(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByLogin error: %v", err)
	}
	if got.ID != 5 || got.Username != "alice" || got.FullName != "Alice A" || !got.Active {
		t.Fatalf("unexpected account: %+v", got)
	}
	if got.PrimaryRole() != models.RoleAdmin || len(got.Roles) != 2 {
		t.Fatalf("unexpected roles: %v", got.Roles)
	}
	if !got.LastLogin.Equal(codec.DecodeEpoch(1700000000.25)) {
		t.Fatalf("unexpected last login: %v", got.LastLogin)
	}
	if !got.DateOfBirth.IsZero() {
		t.Fatalf("NULL date of birth must decode as zero time, got %v", got.DateOfBirth)
	}
}

func TestFindByID_MalformedRolesDecodeEmpty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(accountColumns).
		AddRow(int64(9), nil, "bob", "bob@example.com", "hash", nil, nil, nil, nil, nil, nil,
			nil, int64(0), nil, `not json`)
	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).WithArgs(int64(9)).WillReturnRows(rows)

	got, err := repo.FindByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.Active {
		t.Fatal("is_active 0 must decode as false")
	}
	if got.Roles == nil || len(got.Roles) != 0 {
		t.Fatalf("want empty roles, got %#v", got.Roles)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("alice@example.com").
		WillReturnError(errors.New("db err"))

	_, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	at := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec(q).WithArgs(float64(1700000000), int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateLastLogin(context.Background(), 3, at); err != nil {
		t.Fatalf("UpdateLastLogin error: %v", err)
	}

	mock.ExpectExec(q).WithArgs(float64(1700000000), int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateLastLogin(context.Background(), 4, at); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+full_name\s*=\s*\$1,.*password_hash\s*=\s*\$8,\s*is_active\s*=\s*\$9,\s*roles\s*=\s*\$10\s+WHERE\s+id\s*=\s*\$11\s*$`
	mock.ExpectExec(q).
		WithArgs("Alice A", "Alice", "A", "555", "Main st", "f", nil, "newhash", int64(0), `["guest"]`, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.Account{
		ID: 5, FullName: "Alice A", FirstName: "Alice", LastName: "A", Phone: "555",
		Address: "Main st", Gender: "f", PasswordHash: "newhash",
		Active: false, Roles: []string{models.RoleGuest},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate_NoRowIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Account{ID: 77, Active: true, Roles: []string{models.RoleUser}})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name  string
		sort  string
		order string
	}{
		{name: "default", sort: "", order: `ORDER\s+BY\s+id\s+ASC`},
		{name: "id descending", sort: "-id", order: `ORDER\s+BY\s+id\s+DESC`},
		{name: "bare minus", sort: "-", order: `ORDER\s+BY\s+id\s+DESC`},
		{name: "last login descending", sort: "-last_login", order: `ORDER\s+BY\s+last_login\s+DESC,\s*id\s+ASC`},
		{name: "username", sort: "username", order: `ORDER\s+BY\s+username\s+ASC,\s*id\s+ASC`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			q := `(?s)^SELECT\s+id,.*FROM\s+users\s+` + tt.order + `\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`
			rows := sqlmock.NewRows(accountColumns).
				AddRow(int64(1), nil, "root", "root@example.com", "h", nil, nil, nil, nil, nil, nil,
					nil, int64(1), nil, `["admin"]`).
				AddRow(int64(2), "sub-2", "bob", "bob@example.com", "h", nil, nil, nil, nil, nil, nil,
					nil, int64(0), 1700000000.5, `["user"]`)
			mock.ExpectQuery(q).WithArgs(int64(10), int64(20)).WillReturnRows(rows)

			got, err := repo.List(context.Background(), Page{Offset: 20, Limit: 10, Sort: tt.sort})
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("want 2 accounts, got %d", len(got))
			}
			if !got[0].Active || got[0].PrimaryRole() != models.RoleAdmin {
				t.Fatalf("unexpected first account: %+v", got[0])
			}
			if got[1].Active || got[1].SSOSubject != "sub-2" || !got[1].LastLogin.Equal(codec.DecodeEpoch(1700000000.5)) {
				t.Fatalf("unexpected second account: %+v", got[1])
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestList_UnknownSortKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	for _, sort := range []string{"password_hash", "-roles", "id; DROP TABLE users"} {
		_, err := repo.List(context.Background(), Page{Limit: 10, Sort: sort})
		if !errors.Is(err, common.ErrorValidation) {
			t.Fatalf("sort %q: want common.ErrorValidation, got %v", sort, err)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestList_EmptyAndErrors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users`).WillReturnRows(sqlmock.NewRows(accountColumns))
	got, err := repo.List(context.Background(), Page{Limit: 5})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users`).WillReturnError(errors.New("db down"))
	_, err = repo.List(context.Background(), Page{Limit: 5})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^SELECT COUNT\(\*\) FROM users$`
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	n, err := repo.Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	mock.ExpectQuery(q).WillReturnError(errors.New("db err"))
	if _, err := repo.Count(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

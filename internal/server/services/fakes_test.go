package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/keys"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/profiles"
)

type fakeAccountsRepo struct {
	byLogin   map[string]*models.Account
	findErr   error
	createErr error
	updateErr error
	listErr   error
	countErr  error

	lastPage accounts.Page

	created    []*models.Account
	lastLogins map[int64]time.Time
	updated    []*models.Account
}

func newFakeAccountsRepo(accs ...*models.Account) *fakeAccountsRepo {
	f := &fakeAccountsRepo{byLogin: map[string]*models.Account{}, lastLogins: map[int64]time.Time{}}
	for _, a := range accs {
		f.add(a)
	}
	return f
}

func (f *fakeAccountsRepo) add(a *models.Account) {
	f.byLogin[a.Username] = a
	f.byLogin[a.Email] = a
}

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	f.add(a)
	return a, nil
}

func (f *fakeAccountsRepo) FindByID(_ context.Context, id int64) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.byLogin {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) FindByLogin(_ context.Context, login string) (*models.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if a, ok := f.byLogin[login]; ok {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccountsRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.FindByLogin(ctx, email)
}

func (f *fakeAccountsRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastLogins[id] = at
	return nil
}

func (f *fakeAccountsRepo) Update(_ context.Context, a *models.Account) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, a)
	return nil
}

func (f *fakeAccountsRepo) unique() []*models.Account {
	seen := map[int64]*models.Account{}
	for _, a := range f.byLogin {
		seen[a.ID] = a
	}
	out := make([]*models.Account, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAccountsRepo) List(_ context.Context, p accounts.Page) ([]*models.Account, error) {
	f.lastPage = p
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.unique()
	if p.Offset >= len(all) {
		return []*models.Account{}, nil
	}
	all = all[p.Offset:]
	if len(all) > p.Limit {
		all = all[:p.Limit]
	}
	return all, nil
}

func (f *fakeAccountsRepo) Count(context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.unique())), nil
}

type fakeProfilesRepo struct {
	saved *models.Profile
	err   error
}

func (f *fakeProfilesRepo) GetByUserID(_ context.Context, userID int64) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.saved == nil || f.saved.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return f.saved, nil
}

func (f *fakeProfilesRepo) Save(_ context.Context, p *models.Profile) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = p
	return p, nil
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	p *fakeProfilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }
func (m *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository        { return m.p }
func (m *fakeRepoManager) Dialect() keys.Dialect                        { return keys.SQLite{} }

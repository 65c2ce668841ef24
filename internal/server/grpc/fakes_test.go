package grpc

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/services"
)

type fakeAccounts struct {
	mu       sync.Mutex
	byID     map[int64]*models.Account
	nextID   int64
	password map[string]string
	lastUpd  services.AccountUpdate
	lastAdm  services.AccountAdminUpdate

	listOffset, listLimit int
	listSort              string
}

func newFakeAccounts(accs ...*models.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[int64]*models.Account{}, password: map[string]string{}, nextID: 100}
	for _, a := range accs {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) Register(_ context.Context, r services.Registration) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Username == "" || r.Password == "" {
		return nil, common.ErrorValidation
	}
	for _, a := range f.byID {
		if a.Username == r.Username || a.Email == r.Email {
			return nil, common.ErrorConflict
		}
	}
	f.nextID++
	acc := &models.Account{
		ID:          f.nextID,
		Username:    r.Username,
		Email:       r.Email,
		FullName:    r.FullName,
		DateOfBirth: r.DateOfBirth,
		Active:      true,
		Roles:       []string{models.DefaultRole},
	}
	f.byID[acc.ID] = acc
	f.password[acc.Username] = r.Password
	return acc, nil
}

func (f *fakeAccounts) Login(_ context.Context, login, password string) (*services.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.password[login]; !ok || p != password {
		return nil, common.ErrorUnauthorized
	}
	return &services.Session{
		AccessToken: "token-" + login,
		TokenType:   services.TokenTypeBearer,
		ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresIn:   time.Hour,
	}, nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccounts) UpdateMe(_ context.Context, id int64, upd services.AccountUpdate) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.lastUpd = upd
	if upd.FullName != nil {
		a.FullName = *upd.FullName
	}
	return a, nil
}

func (f *fakeAccounts) ListAccounts(_ context.Context, offset, limit int, sort string) (*services.AccountPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOffset, f.listLimit, f.listSort = offset, limit, sort
	if sort == "bogus" {
		return nil, common.ErrorValidation
	}
	ids := make([]int64, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	page := &services.AccountPage{Accounts: []*models.Account{}, Total: int64(len(ids)), Offset: offset, Limit: limit}
	for i, id := range ids {
		if i >= offset && len(page.Accounts) < limit {
			page.Accounts = append(page.Accounts, f.byID[id])
		}
	}
	return page, nil
}

func (f *fakeAccounts) UpdateAccount(_ context.Context, id int64, upd services.AccountAdminUpdate) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.lastAdm = upd
	if upd.Active != nil {
		a.Active = *upd.Active
	}
	if upd.Roles != nil {
		a.Roles = upd.Roles
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	return a, nil
}

type fakeProfiles struct {
	mu    sync.Mutex
	byUID map[int64]*models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byUID: map[int64]*models.Profile{}}
}

func (f *fakeProfiles) Get(_ context.Context, userID int64) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUID[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Save(_ context.Context, userID int64, p *models.Profile) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Age < 0 {
		return nil, common.ErrorValidation
	}
	p.UserID = userID
	f.byUID[userID] = p
	return p, nil
}

// fakeResolver maps raw credentials to accounts.
type fakeResolver struct {
	accounts map[string]identity.ResolvedAccount
	err      error
	calls    atomic.Int32
}

func (f *fakeResolver) Resolve(_ context.Context, credential string) (identity.ResolvedAccount, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	acc, ok := f.accounts[credential]
	if !ok || credential == "" {
		return nil, common.ErrorUnauthorized
	}
	return acc, nil
}

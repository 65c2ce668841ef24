package identity

import (
	"context"
	"sync/atomic"

	"github.com/Nerzal/gocloak/v13"
	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

type fakeFinder struct {
	byID    map[int64]*models.Account
	byEmail map[string]*models.Account
	err     error
	calls   atomic.Int32
}

func newFakeFinder(accs ...*models.Account) *fakeFinder {
	f := &fakeFinder{byID: map[int64]*models.Account{}, byEmail: map[string]*models.Account{}}
	for _, a := range accs {
		f.byID[a.ID] = a
		f.byEmail[a.Email] = a
	}
	return f
}

func (f *fakeFinder) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFinder) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.byEmail[email]; ok {
		return a, nil
	}
	return nil, common.ErrorNotFound
}

type fakeKeycloak struct {
	active   bool
	info     *gocloak.UserInfo
	introErr error
	infoErr  error
	block    bool
}

func (f *fakeKeycloak) RetrospectToken(ctx context.Context, _, _, _, _ string) (*gocloak.IntroSpectTokenResult, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.introErr != nil {
		return nil, f.introErr
	}
	return &gocloak.IntroSpectTokenResult{Active: gocloak.BoolP(f.active)}, nil
}

func (f *fakeKeycloak) GetUserInfo(context.Context, string, string) (*gocloak.UserInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

// stubBranch returns a fixed attempt and counts calls.
type stubBranch struct {
	name    string
	attempt Attempt
	calls   int
}

func (s *stubBranch) Name() string { return s.name }

func (s *stubBranch) Resolve(context.Context, string) Attempt {
	s.calls++
	return s.attempt
}

func activeAccount(id int64, email string, roles ...string) *models.Account {
	return &models.Account{ID: id, Username: email, Email: email, Active: true, Roles: roles}
}

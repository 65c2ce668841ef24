// Package services contains server-side business logic. This file implements
// AccountService: registration, password login with session issuance,
// self-service account updates and account administration.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/dbx"
	"github.com/dmitrijs2005/lifelog/internal/server/auth"
	"github.com/dmitrijs2005/lifelog/internal/server/config"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/lifelog/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenTypeBearer is reported to clients alongside every access token.
const TokenTypeBearer = "Bearer"

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
}

// Registration is the input of Register.
type Registration struct {
	Username    string
	Email       string
	Password    string
	FullName    string
	FirstName   string
	LastName    string
	Phone       string
	Address     string
	Gender      string
	DateOfBirth time.Time
}

// AccountUpdate lists the fields UpdateMe changes. Nil fields are left alone.
type AccountUpdate struct {
	FullName    *string
	FirstName   *string
	LastName    *string
	Phone       *string
	Address     *string
	Gender      *string
	DateOfBirth *time.Time
	Password    *string
}

// AccountAdminUpdate is the input of UpdateAccount. Active and Roles are
// left alone when nil; a non-nil Roles must name at least one known role.
type AccountAdminUpdate struct {
	AccountUpdate
	Active *bool
	Roles  []string
}

// Page bounds for ListAccounts.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// AccountPage is one window of the account list together with the total
// number of accounts.
type AccountPage struct {
	Accounts []*models.Account
	Total    int64
	Offset   int
	Limit    int
}

// AccountService issues sessions against the local credential store.
type AccountService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	dummyHash                   []byte
	now                         func() time.Time
}

type AccountOption func(*AccountService)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AccountOption {
	return func(s *AccountService) { s.bcryptCost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

// NewAccountService constructs an AccountService using repositories and
// server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, opts ...AccountOption) *AccountService {
	s := &AccountService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  bcrypt.DefaultCost,
		now:                         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	// compared against on unknown logins so they cost as much as wrong passwords
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lifelog-no-such-account"), s.bcryptCost)
	return s
}

// Login checks login (username or email) and password. Unknown login, wrong
// password and inactive account all yield common.ErrorUnauthorized. The
// login watermark is committed before the token is issued.
func (s *AccountService) Login(ctx context.Context, login, password string) (*Session, error) {
	repo := s.repomanager.Accounts(s.db)
	acc, err := repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.checkPassword(acc.PasswordHash, password) || !acc.Active {
		return nil, common.ErrorUnauthorized
	}

	now := s.now().UTC()
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Accounts(tx).UpdateLastLogin(ctx, acc.ID, now)
	}); err != nil {
		return nil, common.ErrorInternal
	}

	token, err := auth.GenerateToken(acc.ID, acc.Email, s.jwtSecret, s.accessTokenValidityDuration, now)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   now.Add(s.accessTokenValidityDuration),
		ExpiresIn:   s.accessTokenValidityDuration,
	}, nil
}

// Register creates an active account with the default role. An existing
// email or username yields common.ErrorConflict and leaves the store as it
// was.
func (s *AccountService) Register(ctx context.Context, r Registration) (*models.Account, error) {
	return s.create(ctx, r, []string{models.DefaultRole})
}

// CreateWithRoles is Register with an explicit role set, the first role
// being primary. It serves administrative tooling and is not exposed to
// clients.
func (s *AccountService) CreateWithRoles(ctx context.Context, r Registration, roles ...string) (*models.Account, error) {
	if len(roles) == 0 {
		roles = []string{models.DefaultRole}
	}
	return s.create(ctx, r, roles)
}

func (s *AccountService) create(ctx context.Context, r Registration, roles []string) (*models.Account, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Accounts(s.db)

	_, err := repo.FindByEmail(ctx, r.Email)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorInternal
	}

	hash, err := s.hashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	acc := &models.Account{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: hash,
		FullName:     r.FullName,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Phone:        r.Phone,
		Address:      r.Address,
		Gender:       r.Gender,
		DateOfBirth:  r.DateOfBirth,
		Active:       true,
		LastLogin:    s.now().UTC(),
		Roles:        roles,
	}

	created, err := repo.Create(ctx, acc)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, common.ErrorInternal
	}
	return created, nil
}

// Get returns the stored account with id.
func (s *AccountService) Get(ctx context.Context, id int64) (*models.Account, error) {
	acc, err := s.repomanager.Accounts(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return acc, nil
}

// UpdateMe applies upd to the account with id inside one transaction.
func (s *AccountService) UpdateMe(ctx context.Context, id int64, upd AccountUpdate) (*models.Account, error) {
	return s.update(ctx, id, upd, nil)
}

// UpdateAccount is the administrative counterpart of UpdateMe. It can also
// deactivate the account and replace its role set.
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, upd AccountAdminUpdate) (*models.Account, error) {
	if upd.Roles != nil {
		if len(upd.Roles) == 0 {
			return nil, common.ErrorValidation
		}
		for _, r := range upd.Roles {
			if !models.IsKnownRole(r) {
				return nil, common.ErrorValidation
			}
		}
	}

	return s.update(ctx, id, upd.AccountUpdate, func(acc *models.Account) {
		setIfPresent(&acc.Active, upd.Active)
		if upd.Roles != nil {
			acc.Roles = append([]string(nil), upd.Roles...)
		}
	})
}

// ListAccounts returns accounts [offset, offset+limit) ordered by sort (see
// accounts.Page). A non-positive limit means DefaultPageLimit and limits
// above MaxPageLimit are clamped.
func (s *AccountService) ListAccounts(ctx context.Context, offset, limit int, sort string) (*AccountPage, error) {
	if offset < 0 {
		return nil, common.ErrorValidation
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}

	repo := s.repomanager.Accounts(s.db)
	accs, err := repo.List(ctx, accounts.Page{Offset: offset, Limit: limit, Sort: sort})
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, common.ErrorValidation
		}
		return nil, common.ErrorInternal
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &AccountPage{Accounts: accs, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *AccountService) update(ctx context.Context, id int64, upd AccountUpdate, apply func(*models.Account)) (*models.Account, error) {
	var hash string
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, common.ErrorValidation
		}
		h, err := s.hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var acc *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		var err error
		acc, err = repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		setIfPresent(&acc.FullName, upd.FullName)
		setIfPresent(&acc.FirstName, upd.FirstName)
		setIfPresent(&acc.LastName, upd.LastName)
		setIfPresent(&acc.Phone, upd.Phone)
		setIfPresent(&acc.Address, upd.Address)
		setIfPresent(&acc.Gender, upd.Gender)
		setIfPresent(&acc.DateOfBirth, upd.DateOfBirth)
		if hash != "" {
			acc.PasswordHash = hash
		}
		if apply != nil {
			apply(acc)
		}

		return repo.Update(ctx, acc)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return acc, nil
}

// --- helpers below ---

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ErrorValidation
		}
		return "", common.ErrorInternal
	}
	return string(hash), nil
}

func (s *AccountService) checkPassword(hash, candidate string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(candidate))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

package identity

import "github.com/dmitrijs2005/lifelog/internal/server/models"

// ResolvedAccount is the outcome of a successful resolution. It is either a
// *PersistedAccount backed by a stored row or an *EphemeralAccount projected
// from a provider's claims.
type ResolvedAccount interface {
	Username() string
	Email() string
	FullName() string
	Roles() []string
	// PrimaryRole is the first role of Roles, or "" when there is none.
	PrimaryRole() string

	resolved()
}

// PersistedAccount wraps a stored, active account.
type PersistedAccount struct {
	acc *models.Account
}

func NewPersistedAccount(acc *models.Account) *PersistedAccount {
	return &PersistedAccount{acc: acc}
}

func (p *PersistedAccount) ID() int64                { return p.acc.ID }
func (p *PersistedAccount) Account() *models.Account { return p.acc }
func (p *PersistedAccount) Username() string         { return p.acc.Username }
func (p *PersistedAccount) Email() string            { return p.acc.Email }
func (p *PersistedAccount) FullName() string         { return p.acc.FullName }
func (p *PersistedAccount) Roles() []string          { return p.acc.Roles }
func (p *PersistedAccount) PrimaryRole() string      { return p.acc.PrimaryRole() }
func (p *PersistedAccount) resolved()                {}

// EphemeralAccount is an identity vouched for by an external provider with
// no local row. It has no key and carries only the default role.
// EmailVerified reports whether the provider asserted ownership of Mail.
type EphemeralAccount struct {
	Provider      string
	Subject       string
	Login         string
	Mail          string
	Name          string
	EmailVerified bool
}

func (e *EphemeralAccount) Username() string    { return e.Login }
func (e *EphemeralAccount) Email() string       { return e.Mail }
func (e *EphemeralAccount) FullName() string    { return e.Name }
func (e *EphemeralAccount) Roles() []string     { return []string{models.DefaultRole} }
func (e *EphemeralAccount) PrimaryRole() string { return models.DefaultRole }
func (e *EphemeralAccount) resolved()           {}

// Persisted returns the stored key of acc, if it has one.
func Persisted(acc ResolvedAccount) (int64, bool) {
	p, ok := acc.(*PersistedAccount)
	if !ok || p == nil || p.acc == nil {
		return 0, false
	}
	return p.acc.ID, true
}

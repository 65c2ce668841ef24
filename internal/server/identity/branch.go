// Package identity turns a bearer credential into an account by trying the
// federated provider, then Google, then locally issued session tokens.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
)

// Outcome classifies a single branch attempt.
type Outcome int

const (
	Resolved Outcome = iota
	NotConfigured
	ProviderError
	InvalidCredential
	// Internal is a local store failure. It is never masked by later branches.
	Internal
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NotConfigured:
		return "not_configured"
	case ProviderError:
		return "provider_error"
	case InvalidCredential:
		return "invalid_credential"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Attempt is what a branch reports back to the chain.
type Attempt struct {
	Outcome Outcome
	Account ResolvedAccount
	Err     error
}

// Branch resolves a credential in one format.
type Branch interface {
	Name() string
	Resolve(ctx context.Context, credential string) Attempt
}

// AccountFinder is the read side of the account store used by branches.
type AccountFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

// DefaultProviderTimeout bounds a provider call when no positive timeout is
// configured.
const DefaultProviderTimeout = 5 * time.Second

func providerTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultProviderTimeout
	}
	return d
}

var errInactive = errors.New("account is inactive")

func resolved(acc ResolvedAccount) Attempt { return Attempt{Outcome: Resolved, Account: acc} }

func failed(o Outcome, err error) Attempt { return Attempt{Outcome: o, Err: err} }

// linkLocal maps a provider identity onto a stored account with the same
// email. Only an email the provider marks as verified is matched; anything
// else, and identities without a stored match, stay ephemeral.
func linkLocal(ctx context.Context, finder AccountFinder, ext *EphemeralAccount) Attempt {
	if ext.Mail == "" || !ext.EmailVerified {
		return resolved(ext)
	}

	acc, err := finder.FindByEmail(ctx, ext.Mail)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return resolved(ext)
	case err != nil:
		return failed(Internal, err)
	case !acc.Active:
		return failed(InvalidCredential, errInactive)
	}
	return resolved(NewPersistedAccount(acc))
}

// Disabled stands in for a provider that is not configured.
type Disabled struct {
	BranchName string
}

func (d Disabled) Name() string { return d.BranchName }

func (d Disabled) Resolve(context.Context, string) Attempt {
	return failed(NotConfigured, nil)
}

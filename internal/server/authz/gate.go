// Package authz decides whether a resolved account may call an operation.
package authz

import (
	"slices"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
)

// Authorize admits acc when required is empty or its primary role is one of
// required. A missing account is common.ErrorUnauthorized, a role mismatch
// common.ErrorForbidden.
func Authorize(acc identity.ResolvedAccount, required ...string) error {
	if acc == nil {
		return common.ErrorUnauthorized
	}
	if len(required) == 0 {
		return nil
	}
	if slices.Contains(required, acc.PrimaryRole()) {
		return nil
	}
	return common.ErrorForbidden
}

// Policy lists the role requirements of every RPC method. Methods are
// identified by their full gRPC name.
type Policy struct {
	public map[string]struct{}
	roles  map[string][]string
}

func NewPolicy() *Policy {
	return &Policy{public: map[string]struct{}{}, roles: map[string][]string{}}
}

// Public marks methods callable without credentials.
func (p *Policy) Public(methods ...string) *Policy {
	for _, m := range methods {
		p.public[m] = struct{}{}
	}
	return p
}

// Require restricts method to accounts whose primary role is in roles.
// With no roles any resolved account is admitted.
func (p *Policy) Require(method string, roles ...string) *Policy {
	p.roles[method] = roles
	return p
}

func (p *Policy) IsPublic(method string) bool {
	_, ok := p.public[method]
	return ok
}

// Roles returns the roles required by method. Methods absent from the
// policy only need an authenticated caller.
func (p *Policy) Roles(method string) []string {
	return p.roles[method]
}

// Check applies the policy of method to acc.
func (p *Policy) Check(method string, acc identity.ResolvedAccount) error {
	if p.IsPublic(method) {
		return nil
	}
	return Authorize(acc, p.Roles(method)...)
}

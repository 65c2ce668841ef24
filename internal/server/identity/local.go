package identity

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/auth"
)

// BranchLocal is the name of the session token branch.
const BranchLocal = "local"

// Local accepts session tokens issued by this service.
type Local struct {
	finder    AccountFinder
	secretKey []byte
}

func NewLocal(finder AccountFinder, secretKey []byte) *Local {
	return &Local{finder: finder, secretKey: secretKey}
}

func (l *Local) Name() string { return BranchLocal }

func (l *Local) Resolve(ctx context.Context, credential string) Attempt {
	claims, err := auth.ParseToken(credential, l.secretKey)
	if err != nil {
		return failed(InvalidCredential, err)
	}
	id, err := claims.AccountID()
	if err != nil {
		return failed(InvalidCredential, err)
	}

	acc, err := l.finder.FindByID(ctx, id)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return failed(InvalidCredential, err)
	case err != nil:
		return failed(Internal, err)
	case !acc.Active:
		return failed(InvalidCredential, errInactive)
	}
	return resolved(NewPersistedAccount(acc))
}

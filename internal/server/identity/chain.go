package identity

import (
	"context"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/logging"
)

// Chain tries its branches in order until one resolves the credential.
// It holds no mutable state and is safe for concurrent use.
type Chain struct {
	branches []Branch
	logger   logging.Logger
}

func NewChain(logger logging.Logger, branches ...Branch) *Chain {
	return &Chain{branches: branches, logger: logger}
}

// Resolve returns the account behind credential. A store failure in any
// branch yields common.ErrorInternal; when no branch accepts the credential
// the result is common.ErrorUnauthorized regardless of which branch failed
// and why.
func (c *Chain) Resolve(ctx context.Context, credential string) (ResolvedAccount, error) {
	if credential == "" {
		return nil, common.ErrorUnauthorized
	}

	for _, b := range c.branches {
		a := b.Resolve(ctx, credential)

		switch a.Outcome {
		case Resolved:
			if a.Account == nil {
				continue
			}
			_, persisted := Persisted(a.Account)
			c.logger.Debug(ctx, "credential resolved", "branch", b.Name(), "persisted", persisted)
			return a.Account, nil
		case Internal:
			c.logger.Error(ctx, "identity branch failed", "branch", b.Name(), "error", a.Err)
			return nil, common.ErrorInternal
		default:
			c.logger.Debug(ctx, "identity branch skipped", "branch", b.Name(), "outcome", a.Outcome.String(), "error", a.Err)
		}
	}

	return nil, common.ErrorUnauthorized
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"google.golang.org/api/idtoken"
)

// BranchGoogle is the name of the Google ID token branch.
const BranchGoogle = "google"

// ValidateFunc verifies a Google ID token for audience.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google accepts ID tokens minted for the configured client id.
type Google struct {
	validate ValidateFunc
	audience string
	timeout  time.Duration
	finder   AccountFinder
}

// NewGoogleBranch returns the Google branch, or a Disabled branch when no
// client id is configured.
func NewGoogleBranch(clientID string, timeout time.Duration, finder AccountFinder) Branch {
	if clientID == "" {
		return Disabled{BranchName: BranchGoogle}
	}
	return NewGoogle(idtoken.Validate, clientID, timeout, finder)
}

func NewGoogle(validate ValidateFunc, audience string, timeout time.Duration, finder AccountFinder) *Google {
	return &Google{validate: validate, audience: audience, timeout: providerTimeout(timeout), finder: finder}
}

func (g *Google) Name() string { return BranchGoogle }

func (g *Google) Resolve(ctx context.Context, credential string) Attempt {
	ext, a, ok := g.fetch(ctx, credential)
	if !ok {
		return a
	}
	return linkLocal(ctx, g.finder, ext)
}

func (g *Google) fetch(ctx context.Context, credential string) (*EphemeralAccount, Attempt, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validate(ctx, credential, g.audience)
	if err != nil {
		return nil, classifyGoogle(ctx, err), false
	}
	if payload.Subject == "" {
		return nil, failed(InvalidCredential, errors.New("id token without subject")), false
	}

	return &EphemeralAccount{
		Provider:      BranchGoogle,
		Subject:       payload.Subject,
		Login:         payload.Subject,
		Mail:          claimString(payload.Claims, "email"),
		Name:          claimString(payload.Claims, "name"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	}, Attempt{}, true
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimBool reads a boolean claim. Some issuers encode it as "true".
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

// Transport failures, including fetching Google's signing keys, are provider
// errors. Everything else means the token itself was rejected.
func classifyGoogle(ctx context.Context, err error) Attempt {
	if ctx.Err() != nil {
		return failed(ProviderError, fmt.Errorf("google: %w", ctx.Err()))
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return failed(ProviderError, err)
	}
	return failed(InvalidCredential, err)
}

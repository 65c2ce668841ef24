package identity

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

// BranchFederated is the name of the Keycloak branch.
const BranchFederated = "keycloak"

// KeycloakClient is the part of *gocloak.GoCloak the branch calls.
type KeycloakClient interface {
	RetrospectToken(ctx context.Context, accessToken, clientID, clientSecret, realm string) (*gocloak.IntroSpectTokenResult, error)
	GetUserInfo(ctx context.Context, accessToken, realm string) (*gocloak.UserInfo, error)
}

// KeycloakConfig enables the federated branch when every string field is set.
type KeycloakConfig struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
	VerifyTLS    bool
	Timeout      time.Duration
}

func (c KeycloakConfig) complete() bool {
	return c.ServerURL != "" && c.Realm != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Keycloak introspects the credential and reads the holder's userinfo.
type Keycloak struct {
	client KeycloakClient
	cfg    KeycloakConfig
	finder AccountFinder
}

// NewKeycloakBranch returns the federated branch, or a Disabled branch when
// cfg is incomplete.
func NewKeycloakBranch(cfg KeycloakConfig, finder AccountFinder) Branch {
	if !cfg.complete() {
		return Disabled{BranchName: BranchFederated}
	}

	cfg.Timeout = providerTimeout(cfg.Timeout)
	client := gocloak.NewClient(cfg.ServerURL)
	rc := client.RestyClient()
	rc.SetTimeout(cfg.Timeout)
	if !cfg.VerifyTLS {
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return NewKeycloak(client, cfg, finder)
}

func NewKeycloak(client KeycloakClient, cfg KeycloakConfig, finder AccountFinder) *Keycloak {
	cfg.Timeout = providerTimeout(cfg.Timeout)
	return &Keycloak{client: client, cfg: cfg, finder: finder}
}

func (k *Keycloak) Name() string { return BranchFederated }

func (k *Keycloak) Resolve(ctx context.Context, credential string) Attempt {
	ext, a, ok := k.fetch(ctx, credential)
	if !ok {
		return a
	}
	return linkLocal(ctx, k.finder, ext)
}

// fetch talks to Keycloak under the provider timeout. The local lookup runs
// after it returns, on the caller's context.
func (k *Keycloak) fetch(ctx context.Context, credential string) (*EphemeralAccount, Attempt, bool) {
	ctx, cancel := context.WithTimeout(ctx, k.cfg.Timeout)
	defer cancel()

	res, err := k.client.RetrospectToken(ctx, credential, k.cfg.ClientID, k.cfg.ClientSecret, k.cfg.Realm)
	if err != nil {
		return nil, classifyKeycloak(ctx, err), false
	}
	if res == nil || !gocloak.PBool(res.Active) {
		return nil, failed(InvalidCredential, errors.New("token is not active")), false
	}

	info, err := k.client.GetUserInfo(ctx, credential, k.cfg.Realm)
	if err != nil {
		return nil, classifyKeycloak(ctx, err), false
	}
	if info == nil || gocloak.PString(info.PreferredUsername) == "" {
		return nil, failed(InvalidCredential, errors.New("userinfo without preferred_username")), false
	}

	return &EphemeralAccount{
		Provider:      BranchFederated,
		Subject:       gocloak.PString(info.Sub),
		Login:         gocloak.PString(info.PreferredUsername),
		Mail:          gocloak.PString(info.Email),
		Name:          gocloak.PString(info.Name),
		EmailVerified: gocloak.PBool(info.EmailVerified),
	}, Attempt{}, true
}

func classifyKeycloak(ctx context.Context, err error) Attempt {
	if ctx.Err() != nil {
		return failed(ProviderError, fmt.Errorf("keycloak: %w", ctx.Err()))
	}
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return failed(InvalidCredential, err)
		}
	}
	return failed(ProviderError, err)
}

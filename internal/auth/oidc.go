package auth

import (
	"context"
	"errors"
	"log"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"lurnix/course-app/internal/config"
)

// DelegatedIdentity is what the identity provider asserts about a user.
type DelegatedIdentity struct {
	ExternalID string
	Email      string
	Name       string
	Image      string
}

// DelegatedProvider is the consumed identity-provider contract: a login
// redirect, the code exchange, and per-request validation of a previously
// issued provider token.
type DelegatedProvider interface {
	AuthCodeURL(state string) string
	// Exchange trades the authorization code for a verified ID token and the
	// identity it asserts.
	Exchange(ctx context.Context, code string) (rawIDToken string, identity *DelegatedIdentity, err error)
	// Validate verifies a raw ID token and returns the asserted identity.
	Validate(ctx context.Context, rawIDToken string) (*DelegatedIdentity, error)
}

// oidcProvider implements DelegatedProvider on any OIDC-compliant issuer.
type oidcProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	conf     oauth2.Config
}

// NewOIDCProvider discovers the issuer and builds the OAuth2 config. Returns
// nil without error when no issuer is configured; the resolver then only has
// the cookie path.
func NewOIDCProvider(ctx context.Context, cfg config.OIDCConfig) (DelegatedProvider, error) {
	if cfg.Issuer == "" {
		log.Println("WARN: OIDC issuer not set, delegated login disabled")
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &oidcProvider{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		conf:     conf,
	}, nil
}

func (p *oidcProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *oidcProvider) Exchange(ctx context.Context, code string) (string, *DelegatedIdentity, error) {
	oauth2Token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return "", nil, err
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return "", nil, errors.New("provider response missing id_token")
	}

	identity, err := p.Validate(ctx, rawIDToken)
	if err != nil {
		return "", nil, err
	}
	return rawIDToken, identity, nil
}

func (p *oidcProvider) Validate(ctx context.Context, rawIDToken string) (*DelegatedIdentity, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("provider asserted no email")
	}

	return &DelegatedIdentity{
		ExternalID: idToken.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Image:      claims.Picture,
	}, nil
}

package oidc

// Package oidc provides the OAuth2 authorization-code + PKCE providers used for
// social sign-in: generic OpenID Connect (Google included) and GitHub.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/ports"
	"golang.org/x/oauth2"
)

const defaultHTTPTimeout = 30 * time.Second

// Provider implements ports.OAuthProvider against an OpenID Connect issuer.
type Provider struct {
	name       string
	kind       string
	config     *oauth2.Config
	httpClient *http.Client
	authParams map[string]string
	mapping    ClaimMapping

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for an OIDC provider.
type ProviderConfig struct {
	Name string
	// Kind is stamped on mapped identities and selects the identifier type
	// (oauth_<kind>). Defaults to Name.
	Kind         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	DiscoveryURL string
	// AuthParams are appended to the authorization URL (prompt, access_type, hd).
	AuthParams map[string]string
	Claims     ClaimMapping
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// NewProvider runs discovery against cfg.DiscoveryURL and builds the provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.Name == "" {
		return nil, errors.New("provider name is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}
	mapping := cfg.Claims.Merge(DefaultOIDCMapping)
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	kind := cfg.Kind
	if kind == "" {
		kind = cfg.Name
	}
	return &Provider{
		name: cfg.Name,
		kind: kind,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		httpClient:   httpClient,
		authParams:   cfg.AuthParams,
		mapping:      mapping,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Name returns the registry key of the provider.
func (p *Provider) Name() string { return p.name }

// AuthCodeURL builds the authorization URL carrying state and the S256 challenge of verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, authOptions(verifier, p.authParams)...)
}

// Exchange trades code for tokens, verifies the id_token and maps its claims.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (domainauth.Identity, error) {
	if code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	tok, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.idTokenClaims(ctx, tok)
	if err != nil {
		return domainauth.Identity{}, err
	}
	if claims["sub"] == nil || claims["email"] == nil {
		if fillErr := p.fillFromUserInfo(ctx, tok, claims); fillErr != nil {
			return domainauth.Identity{}, fillErr
		}
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		// an unverified address must not be trusted as the account e-mail
		delete(claims, "email")
	}

	identity, err := p.mapping.Map(p.kind, claims)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("map claims: %w", err)
	}
	return identity, nil
}

func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	claims := map[string]any{}
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	return claims, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, tok *oauth2.Token, claims map[string]any) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	extra := map[string]any{}
	if claimsErr := ui.Claims(&extra); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	for k, v := range extra {
		if _, ok := claims[k]; !ok {
			claims[k] = v
		}
	}
	return nil
}

func authOptions(verifier string, params map[string]string) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	for k, v := range params {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

var _ ports.OAuthProvider = (*Provider)(nil)

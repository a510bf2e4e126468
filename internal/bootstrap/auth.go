package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/multiauth/config"
	"github.com/target/multiauth/internal/adapters/oidc"
	"github.com/target/multiauth/internal/adapters/token"
	"github.com/target/multiauth/internal/ports"
)

const (
	googleProviderName = "google"
	githubProviderName = "github"
	googleDiscoveryURL = "https://accounts.google.com"
)

// BuildTokenCodec loads key material and returns the account token codec.
func BuildTokenCodec(cfg config.TokenConfig, logger *slog.Logger) (*token.Codec, error) {
	signer, err := token.NewSigner(token.SignerConfig{
		Algorithm:      token.Algorithm(cfg.Algorithm),
		Secret:         cfg.Secret,
		PrivateKeyPath: cfg.PrivateKeyPath,
		PublicKeyPath:  cfg.PublicKeyPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build token signer: %w", err)
	}
	codec, err := token.NewCodec(signer, cfg.Issuer, token.WithTTL(cfg.TTL), token.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("build token codec: %w", err)
	}
	return codec, nil
}

// BuildProviderRegistry registers a factory per configured OAuth provider.
// Returns nil when no provider is configured. Discovery runs lazily on first
// use, so an unreachable issuer does not block startup.
func BuildProviderRegistry(cfg config.OAuthConfig, logger *slog.Logger) *oidc.Registry {
	factories := providerFactories(cfg)
	if len(factories) == 0 {
		if logger != nil {
			logger.Info("no oauth providers configured; oauth routes disabled")
		}
		return nil
	}
	return oidc.NewRegistry(factories, logger)
}

func providerFactories(cfg config.OAuthConfig) map[string]oidc.Factory {
	factories := map[string]oidc.Factory{}

	if p := cfg.Google; p.Enabled() {
		discovery := p.DiscoveryURL
		if discovery == "" {
			discovery = googleDiscoveryURL
		}
		factories[googleProviderName] = func(ctx context.Context) (ports.OAuthProvider, error) {
			return asProvider(oidc.NewProvider(ctx, oidc.ProviderConfig{
				Name:         googleProviderName,
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				RedirectURL:  p.RedirectURL,
				Scopes:       p.Scopes,
				DiscoveryURL: discovery,
				AuthParams:   map[string]string{"prompt": "select_account", "access_type": "online"},
				Claims:       oidc.ClaimMapping(p.Claims),
			}))
		}
	}

	if p := cfg.GitHub; p.Enabled() {
		factories[githubProviderName] = func(context.Context) (ports.OAuthProvider, error) {
			return asProvider(oidc.NewGitHubProvider(oidc.GitHubConfig{
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				RedirectURL:  p.RedirectURL,
				Scopes:       p.Scopes,
				Claims:       oidc.ClaimMapping(p.Claims),
			}))
		}
	}

	if p := cfg.OIDC; p.Enabled() {
		name := cfg.OIDCName
		factories[name] = func(ctx context.Context) (ports.OAuthProvider, error) {
			return asProvider(oidc.NewProvider(ctx, oidc.ProviderConfig{
				Name:         name,
				Kind:         "oidc",
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				RedirectURL:  p.RedirectURL,
				Scopes:       p.Scopes,
				DiscoveryURL: p.DiscoveryURL,
				Claims:       oidc.ClaimMapping(p.Claims),
			}))
		}
	}

	return factories
}

// asProvider keeps a failed constructor from leaking a typed nil into the interface.
func asProvider[P ports.OAuthProvider](p P, err error) (ports.OAuthProvider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

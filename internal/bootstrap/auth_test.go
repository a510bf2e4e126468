package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/multiauth/config"
	domainauth "github.com/target/multiauth/internal/domain/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildTokenCodec(t *testing.T) {
	t.Run("HS256 round trip", func(t *testing.T) {
		codec, err := BuildTokenCodec(config.TokenConfig{
			Algorithm: config.TokenHS256,
			Secret:    testSecret,
			Issuer:    "multiauth",
			TTL:       time.Hour,
		}, discardLogger())
		require.NoError(t, err)

		tok, err := codec.Issue(domainauth.AccountActor("acc-1"))
		require.NoError(t, err)
		actor, err := codec.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", actor.AccountID)
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := BuildTokenCodec(config.TokenConfig{
			Algorithm: config.TokenHS256,
			Secret:    "short",
			Issuer:    "multiauth",
		}, discardLogger())
		require.Error(t, err)
	})

	t.Run("missing key files", func(t *testing.T) {
		_, err := BuildTokenCodec(config.TokenConfig{
			Algorithm:      config.TokenRS256,
			PrivateKeyPath: "/nonexistent/private.pem",
			PublicKeyPath:  "/nonexistent/public.pem",
			Issuer:         "multiauth",
		}, discardLogger())
		require.Error(t, err)
	})
}

func TestBuildProviderRegistry(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		assert.Nil(t, BuildProviderRegistry(config.OAuthConfig{}, discardLogger()))
	})

	t.Run("registers enabled providers", func(t *testing.T) {
		reg := BuildProviderRegistry(config.OAuthConfig{
			Google: config.OAuthProviderConfig{
				ClientID: "g", ClientSecret: "s", RedirectURL: "https://app.example.com/auth/google/callback",
			},
			GitHub: config.OAuthProviderConfig{
				ClientID: "gh", ClientSecret: "s", RedirectURL: "https://app.example.com/auth/github/callback",
			},
			OIDC: config.OAuthProviderConfig{
				ClientID: "o", ClientSecret: "s", RedirectURL: "https://app.example.com/auth/okta/callback",
				DiscoveryURL: "https://login.example.com",
			},
			OIDCName: "okta",
		}, discardLogger())
		require.NotNil(t, reg)
		assert.Equal(t, []string{"github", "google", "okta"}, reg.Names())
	})

	t.Run("github builds without discovery", func(t *testing.T) {
		reg := BuildProviderRegistry(config.OAuthConfig{
			GitHub: config.OAuthProviderConfig{
				ClientID: "gh", ClientSecret: "s", RedirectURL: "https://app.example.com/auth/github/callback",
			},
		}, discardLogger())
		require.NotNil(t, reg)

		p, err := reg.Provider(t.Context(), "github")
		require.NoError(t, err)
		assert.Equal(t, "github", p.Name())
	})

	t.Run("invalid claim expression surfaces on first use", func(t *testing.T) {
		reg := BuildProviderRegistry(config.OAuthConfig{
			GitHub: config.OAuthProviderConfig{
				ClientID: "gh", ClientSecret: "s", RedirectURL: "https://app.example.com/auth/github/callback",
				Claims: config.ClaimExprs{Email: "email ||"},
			},
		}, discardLogger())
		require.NotNil(t, reg)

		p, err := reg.Provider(t.Context(), "github")
		require.Error(t, err)
		assert.Nil(t, p)
	})
}

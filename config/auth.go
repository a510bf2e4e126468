package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// TokenAlgorithm names the signing scheme for account tokens.
type TokenAlgorithm string

const (
	TokenHS256 TokenAlgorithm = "HS256"
	TokenRS256 TokenAlgorithm = "RS256"
	TokenES256 TokenAlgorithm = "ES256"
)

// minSecretLen is the shortest HS256 secret accepted.
const minSecretLen = 32

// UnmarshalText implements encoding.TextUnmarshaler for TokenAlgorithm.
func (a *TokenAlgorithm) UnmarshalText(text []byte) error {
	v := TokenAlgorithm(strings.ToUpper(strings.TrimSpace(string(text))))
	switch v {
	case TokenHS256, TokenRS256, TokenES256:
		*a = v
		return nil
	default:
		return fmt.Errorf("invalid TokenAlgorithm: %q (valid options: HS256, RS256, ES256)", v)
	}
}

// TokenConfig locates the key material used to sign account tokens.
type TokenConfig struct {
	Algorithm TokenAlgorithm `env:"ALG"              envDefault:"HS256"`
	// Secret is the shared HMAC key (HS256 only).
	Secret         string        `env:"SECRET"`
	PrivateKeyPath string        `env:"PRIVATE_KEY_PATH"`
	PublicKeyPath  string        `env:"PUBLIC_KEY_PATH"`
	Issuer         string        `env:"ISSUER"           envDefault:"multiauth"`
	TTL            time.Duration `env:"TTL"              envDefault:"8760h"`
}

// Validate checks the fields the chosen algorithm needs.
func (t TokenConfig) Validate() error {
	switch t.Algorithm {
	case TokenHS256:
		if len(t.Secret) < minSecretLen {
			return fmt.Errorf("TOKEN_SECRET must be at least %d bytes for HS256", minSecretLen)
		}
	case TokenRS256, TokenES256:
		if t.PrivateKeyPath == "" || t.PublicKeyPath == "" {
			return fmt.Errorf("TOKEN_PRIVATE_KEY_PATH and TOKEN_PUBLIC_KEY_PATH are required for %s", t.Algorithm)
		}
	default:
		return fmt.Errorf("unsupported TOKEN_ALG %q", t.Algorithm)
	}
	if t.Issuer == "" {
		return errors.New("TOKEN_ISSUER is required")
	}
	return nil
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool `env:"SECURE" envDefault:"true"`
	// Domain is the cookie domain. Leave empty to use the request host.
	Domain string `env:"DOMAIN" envDefault:""`
}

// Validate rejects domains browsers would refuse, such as bare public suffixes.
func (c CookieConfig) Validate() error {
	if c.Domain == "" {
		return nil
	}
	domain := strings.TrimPrefix(c.Domain, ".")
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if icann && suffix == domain {
		return fmt.Errorf("COOKIE_DOMAIN %q is a public suffix", c.Domain)
	}
	return nil
}

// ClaimExprs holds JMESPath expressions mapping provider claims to identity fields.
// Empty expressions fall back to the provider's defaults.
type ClaimExprs struct {
	Subject   string `env:"SUBJECT"`
	Email     string `env:"EMAIL"`
	FirstName string `env:"FIRST_NAME"`
	LastName  string `env:"LAST_NAME"`
}

// OAuthProviderConfig contains one provider's client registration.
type OAuthProviderConfig struct {
	ClientID     string     `env:"CLIENT_ID"`
	ClientSecret string     `env:"CLIENT_SECRET"`
	RedirectURL  string     `env:"REDIRECT_URL"`
	Scopes       []string   `env:"SCOPES"        envSeparator:" "`
	DiscoveryURL string     `env:"DISCOVERY_URL"`
	Claims       ClaimExprs `                    envPrefix:"CLAIM_"`
}

// Enabled reports whether the provider has a client registration.
func (p OAuthProviderConfig) Enabled() bool { return p.ClientID != "" }

func (p OAuthProviderConfig) validate(needsDiscovery bool) error {
	if !p.Enabled() {
		return nil
	}
	if p.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if p.RedirectURL == "" {
		return errors.New("redirect URL is required")
	}
	if needsDiscovery && p.DiscoveryURL == "" {
		return errors.New("discovery URL is required")
	}
	return nil
}

// OAuthConfig groups the third-party identity providers.
type OAuthConfig struct {
	Google OAuthProviderConfig `envPrefix:"GOOGLE_"`
	GitHub OAuthProviderConfig `envPrefix:"GITHUB_"`
	// OIDC is a generic OpenID Connect issuer registered under OIDCName.
	OIDC     OAuthProviderConfig `envPrefix:"OIDC_"`
	OIDCName string              `env:"OIDC_NAME" envDefault:"oidc"`

	// ExchangeTimeout bounds the token endpoint call during a callback.
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"10s"`
}

// AnyEnabled reports whether at least one provider is configured.
func (o OAuthConfig) AnyEnabled() bool {
	return o.Google.Enabled() || o.GitHub.Enabled() || o.OIDC.Enabled()
}

// Validate checks every enabled provider.
func (o OAuthConfig) Validate() error {
	var errs []error
	if err := o.Google.validate(false); err != nil {
		errs = append(errs, fmt.Errorf("OAUTH_GOOGLE: %w", err))
	}
	if err := o.GitHub.validate(false); err != nil {
		errs = append(errs, fmt.Errorf("OAUTH_GITHUB: %w", err))
	}
	if err := o.OIDC.validate(true); err != nil {
		errs = append(errs, fmt.Errorf("OAUTH_OIDC: %w", err))
	}
	if o.OIDC.Enabled() && o.OIDCName == "" {
		errs = append(errs, errors.New("OAUTH_OIDC_NAME is required"))
	}
	return errors.Join(errs...)
}

// ThrottleConfig limits failed password sign-ins per identifier.
type ThrottleConfig struct {
	Enabled     bool          `env:"ENABLED"      envDefault:"true"`
	MaxFailures int           `env:"MAX_FAILURES" envDefault:"5"`
	Window      time.Duration `env:"WINDOW"       envDefault:"15m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Token    TokenConfig    `envPrefix:"TOKEN_"`
	Cookie   CookieConfig   `envPrefix:"COOKIE_"`
	OAuth    OAuthConfig    `envPrefix:"OAUTH_"`
	Throttle ThrottleConfig `envPrefix:"LOGIN_THROTTLE_"`
}

// Sanitize trims and clamps auth values.
func (a *AuthConfig) Sanitize() {
	a.Cookie.Domain = strings.ToLower(strings.TrimSpace(a.Cookie.Domain))
	a.Token.Issuer = strings.TrimSpace(a.Token.Issuer)
	if a.OAuth.ExchangeTimeout <= 0 {
		a.OAuth.ExchangeTimeout = 10 * time.Second
	}
	if a.Throttle.MaxFailures <= 0 {
		a.Throttle.MaxFailures = 5
	}
	if a.Throttle.Window <= 0 {
		a.Throttle.Window = 15 * time.Minute
	}
}

// Validate reports every auth problem at once.
func (a *AuthConfig) Validate() error {
	var errs []error
	if err := a.Token.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Cookie.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := a.OAuth.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/domain/model"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
	"golang.org/x/oauth2"
)

// DefaultExchangeTimeout bounds the call to the provider token endpoint.
const DefaultExchangeTimeout = 10 * time.Second

// OAuth flow failures. Callback failures surface as upstream provider errors.
var (
	ErrInvalidRedirectURI = errors.New("redirect uri must be a relative path")
	ErrExchangeMissing    = errors.New("oauth exchange state missing")
	ErrProviderMismatch   = errors.New("callback provider does not match the exchange")
	ErrStateMismatch      = errors.New("oauth state mismatch")
)

// sessionAuthenticator is the session convergence point the callback feeds.
type sessionAuthenticator interface {
	Authenticate(ctx context.Context, prior ClientSession, acc model.Account) (Transition, error)
}

// OAuthServiceOptions groups dependencies for OAuthService.
type OAuthServiceOptions struct {
	Providers ports.ProviderRegistry
	Identity  ports.IdentityResolver
	Sessions  sessionAuthenticator
}

// OAuthServiceConfig tunes the exchange.
type OAuthServiceConfig struct {
	ExchangeTimeout time.Duration
	Logger          *slog.Logger
}

// OAuthService runs the authorization-code + PKCE flow and hands the resulting
// account to the session machine.
type OAuthService struct {
	providers ports.ProviderRegistry
	identity  ports.IdentityResolver
	sessions  sessionAuthenticator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewOAuthService constructs a new OAuthService.
func NewOAuthService(opts OAuthServiceOptions, cfg OAuthServiceConfig) *OAuthService {
	if opts.Providers == nil || opts.Identity == nil || opts.Sessions == nil {
		panic("oauth service dependencies are required")
	}
	timeout := cfg.ExchangeTimeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OAuthService{
		providers: opts.Providers,
		identity:  opts.Identity,
		sessions:  opts.Sessions,
		timeout:   timeout,
		logger:    logger.With("component", "oauth"),
	}
}

// AuthorizeResult carries the provider URL and the exchange state to persist in cookies.
type AuthorizeResult struct {
	URL      string
	Exchange domainauth.OAuthExchangeState
}

// Authorize starts a flow with providerName. redirectURI is where the browser
// lands after a successful callback.
func (s *OAuthService) Authorize(ctx context.Context, providerName, redirectURI string) (AuthorizeResult, error) {
	if !isRelativePath(redirectURI) {
		return AuthorizeResult{}, errs.Wrap(ErrInvalidRedirectURI, errs.ErrCodeValidation, "invalid redirect_uri")
	}
	p, err := s.provider(ctx, providerName)
	if err != nil {
		return AuthorizeResult{}, err
	}
	state, err := generateRandomString(32)
	if err != nil {
		return AuthorizeResult{}, errs.AsInternal(err, "generate state")
	}
	verifier := oauth2.GenerateVerifier()
	return AuthorizeResult{
		URL: p.AuthCodeURL(state, verifier),
		Exchange: domainauth.OAuthExchangeState{
			Provider:     providerName,
			State:        state,
			CodeVerifier: verifier,
			RedirectURI:  redirectURI,
		},
	}, nil
}

// CallbackInput is the provider redirect plus the exchange state recovered from cookies.
type CallbackInput struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
	Exchange         domainauth.OAuthExchangeState
}

// Callback completes the flow. The exchange is attempted once; every failure
// is an upstream provider error and leaves the session untouched.
func (s *OAuthService) Callback(ctx context.Context, prior ClientSession, in CallbackInput) (Transition, error) {
	if in.Error != "" {
		return Transition{}, errs.Upstream(fmt.Errorf("%s: %s", in.Error, in.ErrorDescription), "sign-in was rejected by the provider")
	}
	if !in.Exchange.Complete() {
		return Transition{}, errs.Upstream(ErrExchangeMissing, "sign-in expired, try again")
	}
	if in.Exchange.Provider != in.Provider {
		return Transition{}, errs.Upstream(ErrProviderMismatch, "sign-in failed")
	}
	if subtle.ConstantTimeCompare([]byte(in.State), []byte(in.Exchange.State)) != 1 {
		return Transition{}, errs.Upstream(ErrStateMismatch, "sign-in failed")
	}
	if in.Code == "" {
		return Transition{}, errs.Upstream(errors.New("authorization code missing"), "sign-in failed")
	}

	p, err := s.provider(ctx, in.Provider)
	if err != nil {
		return Transition{}, err
	}
	exchangeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	identity, err := p.Exchange(exchangeCtx, in.Code, in.Exchange.CodeVerifier)
	if err != nil {
		s.logger.WarnContext(ctx, "oauth exchange failed", "provider", in.Provider, "error", err)
		return Transition{}, errs.Upstream(err, "sign-in failed")
	}

	acc, err := s.identity.ResolveOAuth(ctx, identity)
	if err != nil {
		return Transition{}, err
	}
	tr, err := s.sessions.Authenticate(ctx, prior, acc)
	if err != nil {
		return Transition{}, err
	}
	if in.Exchange.RedirectURI != "/" {
		tr.Redirect = in.Exchange.RedirectURI
	}
	s.logger.InfoContext(ctx, "oauth sign-in", "provider", in.Provider, "account_id", acc.ID)
	return tr, nil
}

func (s *OAuthService) provider(ctx context.Context, name string) (ports.OAuthProvider, error) {
	p, err := s.providers.Provider(ctx, name)
	if errors.Is(err, ports.ErrUnknownProvider) {
		return nil, errs.Wrap(err, errs.ErrCodeNotFound, "unknown provider")
	}
	if err != nil {
		return nil, errs.Upstream(err, "provider unavailable")
	}
	return p, nil
}

// Providers lists the configured provider names.
func (s *OAuthService) Providers() []string {
	return s.providers.Names()
}

// isRelativePath accepts same-origin absolute paths only.
func isRelativePath(candidate string) bool {
	if candidate == "" || !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") {
		return false
	}
	if strings.ContainsAny(candidate, "\\\r\n") {
		return false
	}
	u, err := url.Parse(candidate)
	return err == nil && !u.IsAbs() && u.Host == ""
}

// generateRandomString returns n random bytes, base64url encoded.
func generateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

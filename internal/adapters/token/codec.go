package token

// Package token mints and verifies the bearer tokens stored in the auth cookie.
// One signer is configured per deployment and shared by every login path.

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/ports"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 365 * 24 * time.Hour

// claims is the JWT body: the actor plus registered iat/exp/iss.
type claims struct {
	Actor domainauth.Actor `json:"actor"`
	jwt.RegisteredClaims
}

// Codec implements ports.TokenCodec.
type Codec struct {
	signer Signer
	issuer string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	parser *jwt.Parser
}

// Option customizes a Codec.
type Option func(*Codec)

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for verification details.
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCodec builds a codec for signer and issuer.
func NewCodec(signer Signer, issuer string, opts ...Option) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("token signer is required")
	}
	if issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	c := &Codec{
		signer: signer,
		issuer: issuer,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{signer.Method().Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

// Issue signs a token for actor.
func (c *Codec) Issue(actor domainauth.Actor) (domainauth.SignedCredential, error) {
	if actor.Type != domainauth.ActorTypeAccount || actor.AccountID == "" {
		return "", errors.New("issue token: actor must be an account with an id")
	}
	now := c.now()
	tok := jwt.NewWithClaims(c.signer.Method(), claims{
		Actor: actor,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	})
	if kid := c.signer.KeyID(); kid != "" {
		tok.Header["kid"] = kid
	}
	signed, err := tok.SignedString(c.signer.SigningKey())
	if err != nil {
		return "", errs.Wrap(err, errs.ErrCodeInternal, "sign token")
	}
	return domainauth.SignedCredential(signed), nil
}

// Verify checks signature, algorithm, issuer and expiry. All failures return
// the same invalid-token error; the reason is logged at debug level only.
func (c *Codec) Verify(token domainauth.SignedCredential) (domainauth.Actor, error) {
	var cl claims
	_, err := c.parser.ParseWithClaims(string(token), &cl, c.keyFunc)
	if err == nil && (cl.Actor.Type != domainauth.ActorTypeAccount || cl.Actor.AccountID == "") {
		err = errors.New("token carries no account actor")
	}
	if err != nil {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, "token rejected", slog.String("reason", err.Error()))
		return domainauth.Actor{}, errs.InvalidToken(nil)
	}
	return cl.Actor, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if kid := c.signer.KeyID(); kid != "" {
		if got, _ := t.Header["kid"].(string); got != kid {
			return nil, errors.New("unknown key id")
		}
	}
	return c.signer.VerificationKey(), nil
}

var _ ports.TokenCodec = (*Codec)(nil)

package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the JWT signing algorithm used by a deployment.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	RS256 Algorithm = "RS256"
	ES256 Algorithm = "ES256"
)

// Valid reports whether the algorithm is supported.
func (a Algorithm) Valid() bool {
	return a == HS256 || a == RS256 || a == ES256
}

func (a Algorithm) method() jwt.SigningMethod {
	switch a {
	case RS256:
		return jwt.SigningMethodRS256
	case ES256:
		return jwt.SigningMethodES256
	default:
		return jwt.SigningMethodHS256
	}
}

// ErrSecretTooShort is returned for HMAC secrets under 32 bytes.
var ErrSecretTooShort = errors.New("token secret must be at least 32 bytes")

const minSecretLen = 32

// Signer holds the key material for one algorithm.
type Signer interface {
	Method() jwt.SigningMethod
	// KeyID is empty for shared secrets.
	KeyID() string
	SigningKey() any
	VerificationKey() any
}

type hmacSigner struct {
	secret []byte
}

// NewHMACSigner returns an HS256 signer for secret.
func NewHMACSigner(secret string) (Signer, error) {
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	return &hmacSigner{secret: []byte(secret)}, nil
}

func (h *hmacSigner) Method() jwt.SigningMethod { return jwt.SigningMethodHS256 }
func (h *hmacSigner) KeyID() string             { return "" }
func (h *hmacSigner) SigningKey() any           { return h.secret }
func (h *hmacSigner) VerificationKey() any      { return h.secret }

type keyPairSigner struct {
	kp *KeyPair
}

// NewKeyPairSigner returns an RS256 or ES256 signer backed by kp.
func NewKeyPairSigner(kp *KeyPair) (Signer, error) {
	if kp == nil || kp.PrivateKey == nil || kp.PublicKey == nil {
		return nil, errors.New("key pair is incomplete")
	}
	if kp.Algorithm != RS256 && kp.Algorithm != ES256 {
		return nil, fmt.Errorf("key pair algorithm %q is not asymmetric", kp.Algorithm)
	}
	return &keyPairSigner{kp: kp}, nil
}

func (k *keyPairSigner) Method() jwt.SigningMethod { return k.kp.Algorithm.method() }
func (k *keyPairSigner) KeyID() string             { return k.kp.KeyID }
func (k *keyPairSigner) SigningKey() any           { return k.kp.PrivateKey }
func (k *keyPairSigner) VerificationKey() any      { return k.kp.PublicKey }

// SignerConfig selects and locates key material.
type SignerConfig struct {
	Algorithm      Algorithm
	Secret         string
	PrivateKeyPath string
	PublicKeyPath  string
}

// NewSigner builds the signer named by cfg.Algorithm.
func NewSigner(cfg SignerConfig) (Signer, error) {
	switch cfg.Algorithm {
	case HS256:
		return NewHMACSigner(cfg.Secret)
	case RS256, ES256:
		kp, err := LoadKeyPair(cfg.Algorithm, cfg.PrivateKeyPath, cfg.PublicKeyPath)
		if err != nil {
			return nil, err
		}
		return NewKeyPairSigner(kp)
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.Algorithm)
	}
}

var (
	_ Signer = (*hmacSigner)(nil)
	_ Signer = (*keyPairSigner)(nil)
)

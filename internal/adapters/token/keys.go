package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

const rsaKeyBits = 2048

// KeyPair is an asymmetric signing key with its public half and key id.
type KeyPair struct {
	KeyID      string
	Algorithm  Algorithm
	PrivateKey crypto.Signer
	PublicKey  crypto.PublicKey
}

// GenerateKeyPair creates a fresh RS256 or ES256 key pair.
func GenerateKeyPair(alg Algorithm) (*KeyPair, error) {
	var (
		priv crypto.Signer
		err  error
	)
	switch alg {
	case RS256:
		priv, err = rsa.GenerateKey(rand.Reader, rsaKeyBits)
	case ES256:
		priv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	default:
		return nil, fmt.Errorf("cannot generate key pair for %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", alg, err)
	}
	return newKeyPair(alg, priv, priv.Public())
}

// LoadKeyPair reads PEM files. publicPath may be empty, in which case the
// public key is derived from the private key.
func LoadKeyPair(alg Algorithm, privatePath, publicPath string) (*KeyPair, error) {
	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	var pubPEM []byte
	if publicPath != "" {
		if pubPEM, err = os.ReadFile(publicPath); err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
	}
	return ParseKeyPair(alg, privPEM, pubPEM)
}

// ParseKeyPair decodes PEM encoded keys for alg.
func ParseKeyPair(alg Algorithm, privPEM, pubPEM []byte) (*KeyPair, error) {
	var (
		priv crypto.Signer
		pub  crypto.PublicKey
		err  error
	)
	switch alg {
	case RS256:
		var k *rsa.PrivateKey
		if k, err = jwt.ParseRSAPrivateKeyFromPEM(privPEM); err != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		priv = k
		if len(pubPEM) > 0 {
			if pub, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM); err != nil {
				return nil, fmt.Errorf("parse RSA public key: %w", err)
			}
		}
	case ES256:
		var k *ecdsa.PrivateKey
		if k, err = jwt.ParseECPrivateKeyFromPEM(privPEM); err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		priv = k
		if len(pubPEM) > 0 {
			if pub, err = jwt.ParseECPublicKeyFromPEM(pubPEM); err != nil {
				return nil, fmt.Errorf("parse EC public key: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("algorithm %q does not use a key pair", alg)
	}
	if pub == nil {
		pub = priv.Public()
	}
	return newKeyPair(alg, priv, pub)
}

func newKeyPair(alg Algorithm, priv crypto.Signer, pub crypto.PublicKey) (*KeyPair, error) {
	kid, err := thumbprint(pub)
	if err != nil {
		return nil, err
	}
	return &KeyPair{KeyID: kid, Algorithm: alg, PrivateKey: priv, PublicKey: pub}, nil
}

// thumbprint derives a stable key id so verifiers without the private key agree on it.
func thumbprint(pub crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:12]), nil
}

// MarshalPEM returns the PKCS#8 private key and PKIX public key blocks.
func (kp *KeyPair) MarshalPEM() (privPEM, pubPEM []byte, err error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(kp.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(kp.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM, nil
}

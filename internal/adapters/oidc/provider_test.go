package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeIdP serves discovery, JWKS, token and userinfo endpoints of an OIDC issuer.
type fakeIdP struct {
	t        *testing.T
	srv      *httptest.Server
	key      *rsa.PrivateKey
	clientID string

	wantCode     string
	wantVerifier string
	idClaims     jwt.MapClaims
	userInfo     map[string]any
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIdP{t: t, key: key, clientID: "client-1", wantCode: "good-code"}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("GET /jwks", f.jwks)
	mux.HandleFunc("POST /token", f.token)
	mux.HandleFunc("GET /userinfo", f.userinfo)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIdP) discovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"issuer":                                f.srv.URL,
		"authorization_endpoint":                f.srv.URL + "/authorize",
		"token_endpoint":                        f.srv.URL + "/token",
		"userinfo_endpoint":                     f.srv.URL + "/userinfo",
		"jwks_uri":                              f.srv.URL + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (f *fakeIdP) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := f.key.PublicKey
	writeJSON(w, map[string]any{"keys": []map[string]any{{
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"kid": "k1",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}})
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	if r.PostForm.Get("code") != f.wantCode || r.PostForm.Get("code_verifier") != f.wantVerifier {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}
	claims := jwt.MapClaims{
		"iss": f.srv.URL,
		"aud": f.clientID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range f.idClaims {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(f.key)
	require.NoError(f.t, err)
	writeJSON(w, map[string]any{
		"access_token": "access-1",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     signed,
	})
}

func (f *fakeIdP) userinfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer access-1" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, f.userInfo)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeIdP) provider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		Name:         "oidc",
		ClientID:     f.clientID,
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:8080/auth/oidc/callback",
		DiscoveryURL: f.srv.URL + "/.well-known/openid-configuration",
		AuthParams:   map[string]string{"prompt": "select_account"},
		HTTPClient:   f.srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing name",
			config: ProviderConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r", DiscoveryURL: "d"},
			errMsg: "provider name is required",
		},
		{
			name:   "missing client ID",
			config: ProviderConfig{Name: "oidc", ClientSecret: "s", RedirectURL: "r", DiscoveryURL: "d"},
			errMsg: "client ID is required",
		},
		{
			name:   "missing client secret",
			config: ProviderConfig{Name: "oidc", ClientID: "c", RedirectURL: "r", DiscoveryURL: "d"},
			errMsg: "client secret is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{Name: "oidc", ClientID: "c", ClientSecret: "s", DiscoveryURL: "d"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{Name: "oidc", ClientID: "c", ClientSecret: "s", RedirectURL: "r"},
			errMsg: "discovery URL is required",
		},
		{
			name: "bad claim expression",
			config: ProviderConfig{
				Name: "oidc", ClientID: "c", ClientSecret: "s", RedirectURL: "r", DiscoveryURL: "d",
				Claims: ClaimMapping{Email: "emails[?"},
			},
			errMsg: "claim mapping email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_AuthCodeURLCarriesPKCE(t *testing.T) {
	idp := newFakeIdP(t)
	p := idp.provider(t)
	verifier := oauth2.GenerateVerifier()

	raw := p.AuthCodeURL("state-1", verifier)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, idp.srv.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "openid")
	assert.Empty(t, q.Get("code_verifier"))
}

func TestProvider_Exchange(t *testing.T) {
	idp := newFakeIdP(t)
	p := idp.provider(t)
	idp.wantVerifier = oauth2.GenerateVerifier()
	idp.idClaims = jwt.MapClaims{
		"sub":            "google-123",
		"email":          "Ada@Example.com",
		"email_verified": true,
		"given_name":     "Ada",
		"family_name":    "Lovelace",
	}

	id, err := p.Exchange(context.Background(), "good-code", idp.wantVerifier)
	require.NoError(t, err)
	assert.Equal(t, "oidc", id.Provider)
	assert.Equal(t, "google-123", id.Subject)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "Ada", id.FirstName)
	assert.Equal(t, "Lovelace", id.LastName)
}

func TestProvider_ExchangeStampsKind(t *testing.T) {
	idp := newFakeIdP(t)
	p, err := NewProvider(context.Background(), ProviderConfig{
		Name:         "okta",
		Kind:         "oidc",
		ClientID:     idp.clientID,
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:8080/auth/okta/callback",
		DiscoveryURL: idp.srv.URL + "/.well-known/openid-configuration",
		HTTPClient:   idp.srv.Client(),
	})
	require.NoError(t, err)
	idp.wantVerifier = oauth2.GenerateVerifier()
	idp.idClaims = jwt.MapClaims{"sub": "okta-1", "email": "grace@example.com", "email_verified": true}

	id, err := p.Exchange(context.Background(), "good-code", idp.wantVerifier)
	require.NoError(t, err)
	assert.Equal(t, "okta", p.Name())
	assert.Equal(t, "oidc", id.Provider)
}

func TestProvider_ExchangeFillsFromUserInfo(t *testing.T) {
	idp := newFakeIdP(t)
	p := idp.provider(t)
	idp.wantVerifier = oauth2.GenerateVerifier()
	idp.idClaims = jwt.MapClaims{"sub": "u-1"}
	idp.userInfo = map[string]any{"sub": "u-1", "email": "grace@example.com", "name": "Grace Hopper"}

	id, err := p.Exchange(context.Background(), "good-code", idp.wantVerifier)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", id.Email)
	// no given_name claim, so the first name stays empty
	assert.Empty(t, id.FirstName)
}

func TestProvider_ExchangeDropsUnverifiedEmail(t *testing.T) {
	idp := newFakeIdP(t)
	p := idp.provider(t)
	idp.wantVerifier = oauth2.GenerateVerifier()
	idp.idClaims = jwt.MapClaims{"sub": "u-2", "email": "x@example.com", "email_verified": false}
	idp.userInfo = map[string]any{"sub": "u-2"}

	id, err := p.Exchange(context.Background(), "good-code", idp.wantVerifier)
	require.NoError(t, err)
	assert.Empty(t, id.Email)
}

func TestProvider_ExchangeFailures(t *testing.T) {
	idp := newFakeIdP(t)
	p := idp.provider(t)
	idp.wantVerifier = oauth2.GenerateVerifier()
	idp.idClaims = jwt.MapClaims{"sub": "u-3"}

	t.Run("wrong verifier", func(t *testing.T) {
		_, err := p.Exchange(context.Background(), "good-code", oauth2.GenerateVerifier())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exchange code for token")
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := p.Exchange(context.Background(), "", idp.wantVerifier)
		require.Error(t, err)
	})

	t.Run("foreign audience", func(t *testing.T) {
		idp.idClaims = jwt.MapClaims{"sub": "u-3", "aud": "someone-else"}
		_, err := p.Exchange(context.Background(), "good-code", idp.wantVerifier)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verify id_token")
	})
}

func TestGetIDTokenFromToken(t *testing.T) {
	_, err := getIDTokenFromToken(nil)
	require.Error(t, err)

	_, err = getIDTokenFromToken(&oauth2.Token{AccessToken: "a"})
	require.Error(t, err)

	tok := (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{"id_token": "x.y.z"})
	s, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "x.y.z", s)
}

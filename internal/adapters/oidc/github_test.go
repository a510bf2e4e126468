package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGitHub struct {
	srv          *httptest.Server
	wantVerifier string
	user         map[string]any
	emails       []map[string]any
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code_verifier") != f.wantVerifier {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		writeJSON(w, map[string]any{"access_token": "gho_1", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, f.user)
	})
	mux.HandleFunc("GET /user/emails", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, f.emails)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) provider(t *testing.T) *GitHubProvider {
	t.Helper()
	p, err := NewGitHubProvider(GitHubConfig{
		ClientID:     "gh-client",
		ClientSecret: "gh-secret",
		RedirectURL:  "http://localhost:8080/auth/github/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  f.srv.URL + "/login/oauth/authorize",
			TokenURL: f.srv.URL + "/login/oauth/access_token",
		},
		APIBaseURL: f.srv.URL,
		HTTPClient: f.srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestNewGitHubProvider_Defaults(t *testing.T) {
	p, err := NewGitHubProvider(GitHubConfig{ClientID: "c", ClientSecret: "s", RedirectURL: "r"})
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name())
	assert.Equal(t, "https://github.com/login/oauth/authorize", p.config.Endpoint.AuthURL)
	assert.Equal(t, defaultGitHubAPI, p.apiBase)
	assert.Equal(t, []string{"read:user", "user:email"}, p.config.Scopes)

	_, err = NewGitHubProvider(GitHubConfig{ClientID: "c", RedirectURL: "r"})
	require.Error(t, err)
}

func TestGitHubProvider_AuthCodeURL(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(t)
	verifier := oauth2.GenerateVerifier()

	u, err := url.Parse(p.AuthCodeURL("st", verifier))
	require.NoError(t, err)
	assert.Equal(t, "st", u.Query().Get("state"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), u.Query().Get("code_challenge"))
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(t)
	gh.wantVerifier = oauth2.GenerateVerifier()
	gh.user = map[string]any{"id": 583231, "login": "octocat", "name": "The Octocat", "email": "Octo@GitHub.com"}

	id, err := p.Exchange(context.Background(), "code", gh.wantVerifier)
	require.NoError(t, err)
	assert.Equal(t, "github", id.Provider)
	assert.Equal(t, "583231", id.Subject)
	assert.Equal(t, "octo@github.com", id.Email)
	assert.Equal(t, "The", id.FirstName)
	assert.Equal(t, "Octocat", id.LastName)
}

func TestGitHubProvider_ExchangePrivateEmail(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(t)
	gh.wantVerifier = oauth2.GenerateVerifier()
	gh.user = map[string]any{"id": 7, "login": "hidden", "email": nil}
	gh.emails = []map[string]any{
		{"email": "old@example.com", "primary": false, "verified": true},
		{"email": "main@example.com", "primary": true, "verified": true},
	}

	id, err := p.Exchange(context.Background(), "code", gh.wantVerifier)
	require.NoError(t, err)
	assert.Equal(t, "main@example.com", id.Email)
	assert.Equal(t, "hidden", id.FirstName)
}

func TestGitHubProvider_ExchangeRejectsWrongVerifier(t *testing.T) {
	gh := newFakeGitHub(t)
	p := gh.provider(t)
	gh.wantVerifier = oauth2.GenerateVerifier()

	_, err := p.Exchange(context.Background(), "code", "not-the-verifier")
	require.Error(t, err)
}

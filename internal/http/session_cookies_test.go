package httpx

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/service"
)

func sampleState() domainauth.SessionState {
	return domainauth.SessionState{
		CurrentAccountID: "acc-1",
		CurrentMemberID:  "mem-1",
		Accounts: map[string]domainauth.AccountView{
			"acc-1": {
				ID:          "acc-1",
				DisplayName: "Alice Adams",
				Memberships: map[string]domainauth.MembershipView{
					"mem-1": {ID: "mem-1", Type: "admin", Workspace: domainauth.WorkspaceRef{ID: "ws-1", Slug: "acme"}},
				},
			},
			"acc-2": {ID: "acc-2", DisplayName: "Bob Brown", Memberships: map[string]domainauth.MembershipView{}},
		},
	}
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func rawCookie(name, payload string) *http.Cookie {
	return &http.Cookie{Name: name, Value: base64.RawURLEncoding.EncodeToString([]byte(payload))}
}

func TestSessionCookies_StateRoundTrip(t *testing.T) {
	c := NewSessionCookies(CookieOptions{Domain: "app.example.com", Secure: true})
	state := sampleState()

	ck, err := c.EncodeState(state)
	require.NoError(t, err)
	assert.Equal(t, StateCookieName, ck.Name)
	assert.False(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, "app.example.com", ck.Domain)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, sessionCookieMaxAge, ck.MaxAge)

	got, err := c.DecodeState(requestWith(ck))
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestSessionCookies_AuthRoundTrip(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})
	auth := domainauth.AuthMap{"acc-1": "token-a", "acc-2": "token-b"}

	ck, err := c.EncodeAuth(auth)
	require.NoError(t, err)
	assert.Equal(t, AuthCookieName, ck.Name)
	assert.True(t, ck.HttpOnly)

	got, err := c.DecodeAuth(requestWith(ck))
	require.NoError(t, err)
	assert.Equal(t, auth, got)
}

func TestSessionCookies_DecodeAbsent(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})

	_, err := c.DecodeAuth(requestWith())
	require.ErrorIs(t, err, ErrCookieAbsent)
	_, err = c.DecodeState(requestWith(&http.Cookie{Name: StateCookieName, Value: ""}))
	require.ErrorIs(t, err, ErrCookieAbsent)
}

func TestSessionCookies_DecodeStateMalformed(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"not base64", &http.Cookie{Name: StateCookieName, Value: "%%%"}},
		{"not json", rawCookie(StateCookieName, "{")},
		{"unknown field", rawCookie(StateCookieName, `{"currentAccountID":"","currentMemberID":"","accounts":{},"admin":true}`)},
		{"missing accounts", rawCookie(StateCookieName, `{"currentAccountID":"","currentMemberID":""}`)},
		{"trailing data", rawCookie(StateCookieName, `{"currentAccountID":"","currentMemberID":"","accounts":{}}{}`)},
		{
			"key mismatch",
			rawCookie(StateCookieName, `{"currentAccountID":"acc-1","currentMemberID":"","accounts":{"acc-1":{"id":"acc-9","displayName":"x","memberships":{}}}}`),
		},
		{
			"bad membership type",
			rawCookie(StateCookieName, `{"currentAccountID":"acc-1","currentMemberID":"mem-1","accounts":{"acc-1":{"id":"acc-1","displayName":"x",`+
				`"memberships":{"mem-1":{"id":"mem-1","type":"owner","workspace":{"id":"ws-1","slug":"acme"}}}}}}`),
		},
		{
			"current account unknown",
			rawCookie(StateCookieName, `{"currentAccountID":"acc-7","currentMemberID":"","accounts":{}}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.DecodeState(requestWith(tt.cookie))
			require.ErrorIs(t, err, ErrCookieMalformed)
		})
	}
}

func TestSessionCookies_DecodeAuthMalformed(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})

	for name, payload := range map[string]string{
		"null":        `null`,
		"array":       `["a"]`,
		"empty key":   `{"":"token"}`,
		"empty token": `{"acc-1":""}`,
		"number":      `{"acc-1":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.DecodeAuth(requestWith(rawCookie(AuthCookieName, payload)))
			require.Error(t, err)
		})
	}
}

func TestSessionCookies_ReadClientSessionTreatsMalformedAsAbsent(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})

	cs := c.ReadClientSession(requestWith(
		&http.Cookie{Name: AuthCookieName, Value: "garbage!"},
		rawCookie(StateCookieName, `{"bogus":1}`),
	))
	assert.Nil(t, cs.Auth)
	assert.Nil(t, cs.State)
}

func TestSessionCookies_WriteTransition(t *testing.T) {
	c := NewSessionCookies(CookieOptions{})

	t.Run("writes the pair", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := c.WriteTransition(rec, service.Transition{
			Auth:  domainauth.AuthMap{"acc-1": "token-a"},
			State: sampleState(),
		})
		require.NoError(t, err)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		assert.Equal(t, AuthCookieName, cookies[0].Name)
		assert.Equal(t, StateCookieName, cookies[1].Name)
	})

	t.Run("teardown clears both", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, c.WriteTransition(rec, service.RequireReauth()))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, ck := range cookies {
			assert.Empty(t, ck.Value)
			assert.Negative(t, ck.MaxAge)
		}
	})

	t.Run("invalid state writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		bad := sampleState()
		bad.CurrentAccountID = "acc-9"
		err := c.WriteTransition(rec, service.Transition{Auth: domainauth.AuthMap{"acc-1": "t"}, State: bad})
		require.Error(t, err)
		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestSessionCookies_ExchangeCookies(t *testing.T) {
	c := NewSessionCookies(CookieOptions{Secure: false})
	ex := domainauth.OAuthExchangeState{
		Provider:     "google",
		State:        "state-123",
		CodeVerifier: "verifier-abc",
		RedirectURI:  "/w/acme?tab=members; x",
	}

	rec := httptest.NewRecorder()
	c.SetExchange(rec, ex)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 4)
	for _, ck := range cookies {
		assert.True(t, ck.HttpOnly, ck.Name)
		assert.True(t, ck.Secure, ck.Name)
		assert.Equal(t, http.SameSiteNoneMode, ck.SameSite, ck.Name)
		assert.Equal(t, exchangeCookieMaxAge, ck.MaxAge, ck.Name)
	}

	assert.Equal(t, ex, c.ReadExchange(requestWith(cookies...)))

	rec = httptest.NewRecorder()
	c.ClearExchange(rec)
	for _, ck := range rec.Result().Cookies() {
		assert.Negative(t, ck.MaxAge, ck.Name)
	}
}

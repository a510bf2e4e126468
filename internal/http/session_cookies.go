package httpx

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/service"
)

// Cookie names shared with the browser.
const (
	AuthCookieName  = "auth"
	StateCookieName = "app-state"

	exchangeStateCookie    = "auth_state"
	exchangeVerifierCookie = "auth_code_verifier"
	exchangeRedirectCookie = "redirect_uri"
	exchangeProviderCookie = "provider"
)

const (
	sessionCookieMaxAge  = int(365 * 24 * time.Hour / time.Second)
	exchangeCookieMaxAge = 600 // 10 minutes
	maxCookieValueLen    = 4000
)

// Cookie decode failures. Callers treat both alike.
var (
	ErrCookieAbsent    = errors.New("cookie absent")
	ErrCookieMalformed = errors.New("cookie malformed")
	ErrCookieTooLarge  = errors.New("cookie value exceeds browser limit")
)

// CookieOptions configures the session cookie attributes.
type CookieOptions struct {
	Domain string
	Secure bool
}

// SessionCookies encodes the auth map and app state into cookies and back.
// The auth cookie is httpOnly; app-state is readable by scripts for rendering.
type SessionCookies struct {
	domain string
	secure bool
}

// NewSessionCookies constructs a cookie store.
func NewSessionCookies(opts CookieOptions) *SessionCookies {
	return &SessionCookies{domain: opts.Domain, secure: opts.Secure}
}

func (c *SessionCookies) sessionCookie(name, value string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: httpOnly,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	}
}

// expire mirrors the attributes of cookie so browsers match it on deletion.
func expire(cookie *http.Cookie) *http.Cookie {
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0).UTC()
	return cookie
}

// EncodeAuth builds the auth cookie.
func (c *SessionCookies) EncodeAuth(m domainauth.AuthMap) (*http.Cookie, error) {
	if m == nil {
		m = domainauth.AuthMap{}
	}
	value, err := encodePayload(m)
	if err != nil {
		return nil, fmt.Errorf("encode auth cookie: %w", err)
	}
	return c.sessionCookie(AuthCookieName, value, true), nil
}

// DecodeAuth reads the auth cookie. The tokens are not verified here.
func (c *SessionCookies) DecodeAuth(r *http.Request) (domainauth.AuthMap, error) {
	var raw map[string]domainauth.SignedCredential
	if err := decodeCookie(r, AuthCookieName, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrCookieMalformed
	}
	for id, token := range raw {
		if id == "" || token == "" {
			return nil, ErrCookieMalformed
		}
	}
	return domainauth.AuthMap(raw), nil
}

// ClearAuth expires the auth cookie.
func (c *SessionCookies) ClearAuth() *http.Cookie {
	return expire(c.sessionCookie(AuthCookieName, "", true))
}

// EncodeState builds the app-state cookie.
func (c *SessionCookies) EncodeState(s domainauth.SessionState) (*http.Cookie, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("encode state cookie: %w", err)
	}
	if s.Accounts == nil {
		s = domainauth.EmptySessionState()
	}
	value, err := encodePayload(s)
	if err != nil {
		return nil, fmt.Errorf("encode state cookie: %w", err)
	}
	return c.sessionCookie(StateCookieName, value, false), nil
}

// DecodeState reads the app-state cookie and checks the snapshot invariants.
func (c *SessionCookies) DecodeState(r *http.Request) (domainauth.SessionState, error) {
	var s domainauth.SessionState
	if err := decodeCookie(r, StateCookieName, &s); err != nil {
		return domainauth.SessionState{}, err
	}
	if s.Accounts == nil {
		return domainauth.SessionState{}, ErrCookieMalformed
	}
	for id, acc := range s.Accounts {
		if acc.Memberships == nil {
			acc.Memberships = map[string]domainauth.MembershipView{}
			s.Accounts[id] = acc
		}
	}
	if err := s.Validate(); err != nil {
		return domainauth.SessionState{}, fmt.Errorf("%w: %w", ErrCookieMalformed, err)
	}
	return s, nil
}

// ClearState expires the app-state cookie.
func (c *SessionCookies) ClearState() *http.Cookie {
	return expire(c.sessionCookie(StateCookieName, "", false))
}

// ReadClientSession collects what the browser presented. Absent and malformed
// cookies both come back as nil fields.
func (c *SessionCookies) ReadClientSession(r *http.Request) service.ClientSession {
	var out service.ClientSession
	if auth, err := c.DecodeAuth(r); err == nil {
		out.Auth = auth
	}
	if state, err := c.DecodeState(r); err == nil {
		view := domainauth.NewCachedView(state)
		out.State = &view
	}
	return out
}

// WriteTransition writes both session cookies, or clears both on teardown.
// Both values are encoded before any header is written.
func (c *SessionCookies) WriteTransition(w http.ResponseWriter, tr service.Transition) error {
	if tr.Teardown {
		c.Clear(w)
		return nil
	}
	authCookie, err := c.EncodeAuth(tr.Auth)
	if err != nil {
		return err
	}
	stateCookie, err := c.EncodeState(tr.State)
	if err != nil {
		return err
	}
	http.SetCookie(w, authCookie)
	http.SetCookie(w, stateCookie)
	return nil
}

// Clear expires both session cookies.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.ClearAuth())
	http.SetCookie(w, c.ClearState())
}

// exchangeCookie builds a short-lived exchange cookie. The provider redirects
// back cross-site, so SameSite=None and Secure are always set.
func (c *SessionCookies) exchangeCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   exchangeCookieMaxAge,
	}
}

// SetExchange stores the per-attempt OAuth exchange state.
func (c *SessionCookies) SetExchange(w http.ResponseWriter, e domainauth.OAuthExchangeState) {
	http.SetCookie(w, c.exchangeCookie(exchangeStateCookie, e.State))
	http.SetCookie(w, c.exchangeCookie(exchangeVerifierCookie, e.CodeVerifier))
	http.SetCookie(w, c.exchangeCookie(exchangeRedirectCookie, url.QueryEscape(e.RedirectURI)))
	http.SetCookie(w, c.exchangeCookie(exchangeProviderCookie, e.Provider))
}

// ReadExchange recovers the exchange state. Missing parts are left empty.
func (c *SessionCookies) ReadExchange(r *http.Request) domainauth.OAuthExchangeState {
	var e domainauth.OAuthExchangeState
	if ck, err := r.Cookie(exchangeStateCookie); err == nil {
		e.State = ck.Value
	}
	if ck, err := r.Cookie(exchangeVerifierCookie); err == nil {
		e.CodeVerifier = ck.Value
	}
	if ck, err := r.Cookie(exchangeRedirectCookie); err == nil {
		if v, unescapeErr := url.QueryUnescape(ck.Value); unescapeErr == nil {
			e.RedirectURI = v
		}
	}
	if ck, err := r.Cookie(exchangeProviderCookie); err == nil {
		e.Provider = ck.Value
	}
	return e
}

// ClearExchange expires the four exchange cookies.
func (c *SessionCookies) ClearExchange(w http.ResponseWriter) {
	for _, name := range []string{
		exchangeStateCookie,
		exchangeVerifierCookie,
		exchangeRedirectCookie,
		exchangeProviderCookie,
	} {
		http.SetCookie(w, expire(c.exchangeCookie(name, "")))
	}
}

func encodePayload(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	value := base64.RawURLEncoding.EncodeToString(raw)
	if len(value) > maxCookieValueLen {
		return "", ErrCookieTooLarge
	}
	return value, nil
}

func decodeCookie(r *http.Request, name string, dst any) error {
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return ErrCookieAbsent
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCookieMalformed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrCookieMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrCookieMalformed
	}
	return nil
}

package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/service"
)

// SessionServiceInterface defines the session state machine operations the handlers drive.
type SessionServiceInterface interface {
	Resolve(ctx context.Context, c service.ClientSession) (service.VerifiedSession, error)
	Login(ctx context.Context, prior service.ClientSession, in service.LoginInput) (service.Transition, error)
	AddAccount(ctx context.Context, prior service.ClientSession, in service.LoginInput) (service.Transition, error)
	SignUp(ctx context.Context, in domainauth.SignUpInput) (service.SignUpResult, error)
	Logout(ctx context.Context, v service.VerifiedSession) (service.Transition, error)
	SwitchAccount(ctx context.Context, v service.VerifiedSession, target string) (service.Transition, error)
	CreateWorkspaceAndJoin(ctx context.Context, v service.VerifiedSession, slug string) (service.Transition, error)
	ResolveLanding(ctx context.Context, v service.VerifiedSession) (service.Transition, error)
	SelectWorkspace(ctx context.Context, v service.VerifiedSession, slug string) (service.Transition, error)
}

// SessionHandlers provides HTTP handlers for password sign-in and session actions.
type SessionHandlers struct {
	Svc     SessionServiceInterface
	Cookies *SessionCookies
	Logger  *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *signInRequest) bindForm(form url.Values) {
	s.Email = form.Get("email")
	s.Password = form.Get("password")
}

type signUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (s *signUpRequest) bindForm(form url.Values) {
	s.FirstName = form.Get("firstName")
	s.LastName = form.Get("lastName")
	s.Email = form.Get("email")
	s.Password = form.Get("password")
}

type switchAccountRequest struct {
	Account string `json:"account"`
}

func (s *switchAccountRequest) bindForm(form url.Values) {
	s.Account = form.Get("account")
}

type joinRequest struct {
	Slug string `json:"slug"`
}

func (j *joinRequest) bindForm(form url.Values) {
	j.Slug = form.Get("slug")
}

// finish writes the transition cookies and redirects, or maps err onto the response.
func (h *SessionHandlers) finish(w http.ResponseWriter, r *http.Request, tr service.Transition, err error) {
	if err == nil {
		err = h.Cookies.WriteTransition(w, tr)
	}
	if err != nil {
		writeFailure(w, r, failureParams{Cookies: h.Cookies, Logger: h.logger(), Err: err})
		return
	}
	redirect(w, r, tr.Redirect)
}

// SignIn handles password sign-in.
// POST /sign-in.
func (h *SessionHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !bind(w, r, &req) {
		return
	}
	prior := h.Cookies.ReadClientSession(r)
	tr, err := h.Svc.Login(r.Context(), prior, service.LoginInput{Identifier: req.Email, Password: req.Password})
	h.finish(w, r, tr, err)
}

// AddAccount signs a further account into this browser.
// POST /add-account.
func (h *SessionHandlers) AddAccount(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !bind(w, r, &req) {
		return
	}
	prior := h.Cookies.ReadClientSession(r)
	tr, err := h.Svc.AddAccount(r.Context(), prior, service.LoginInput{Identifier: req.Email, Password: req.Password})
	h.finish(w, r, tr, err)
}

// SignUp registers an e-mail account and starts a session for it.
// POST /sign-up.
func (h *SessionHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !bind(w, r, &req) {
		return
	}
	res, err := h.Svc.SignUp(r.Context(), domainauth.SignUpInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if errs.IsDuplicate(err) {
		WriteJSON(w, http.StatusConflict, map[string]string{
			"error":   string(errs.ErrCodeDuplicate),
			"message": publicMessage(err),
			"field":   errs.GetField(err),
		})
		return
	}
	h.finish(w, r, res.Transition, err)
}

// SignOut signs the current account out.
// POST /sign-out.
func (h *SessionHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.Logout(r.Context(), v)
	h.finish(w, r, tr, err)
}

// SwitchAccount makes another signed-in account current.
// POST /switch-account.
func (h *SessionHandlers) SwitchAccount(w http.ResponseWriter, r *http.Request) {
	var req switchAccountRequest
	if !bind(w, r, &req) {
		return
	}
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.SwitchAccount(r.Context(), v, req.Account)
	h.finish(w, r, tr, err)
}

// Join creates a workspace for the current account.
// POST /join.
func (h *SessionHandlers) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !bind(w, r, &req) {
		return
	}
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.CreateWorkspaceAndJoin(r.Context(), v, req.Slug)
	h.finish(w, r, tr, err)
}

// Index sends a verified session to its workspace or to /join.
// GET /.
func (h *SessionHandlers) Index(w http.ResponseWriter, r *http.Request) {
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.ResolveLanding(r.Context(), v)
	h.finish(w, r, tr, err)
}

// SelectWorkspace makes the workspace named by the path current.
// GET /w/{slug}.
func (h *SessionHandlers) SelectWorkspace(w http.ResponseWriter, r *http.Request) {
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.SelectWorkspace(r.Context(), v, r.PathValue("slug"))
	h.finish(w, r, tr, err)
}

// Workspace is the landing page of a workspace. It makes the workspace current
// for the signed-in account and answers with the selected membership.
// GET /{slug}.
func (h *SessionHandlers) Workspace(w http.ResponseWriter, r *http.Request) {
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		h.finish(w, r, service.RequireReauth(), nil)
		return
	}
	tr, err := h.Svc.SelectWorkspace(r.Context(), v, r.PathValue("slug"))
	if err == nil {
		err = h.Cookies.WriteTransition(w, tr)
	}
	if err != nil {
		writeFailure(w, r, failureParams{Cookies: h.Cookies, Logger: h.logger(), Err: err})
		return
	}
	m, _ := tr.State.CurrentMembership()
	WriteJSON(w, http.StatusOK, map[string]any{
		"accountID":  tr.State.CurrentAccountID,
		"membership": m,
	})
}

// Session returns the verified session snapshot. Tokens are never echoed.
// GET /session.
func (h *SessionHandlers) Session(w http.ResponseWriter, r *http.Request) {
	v, ok := GetSessionFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"accountIDs":    v.Auth().AccountIDs(),
		"state":         v.State(),
	})
}

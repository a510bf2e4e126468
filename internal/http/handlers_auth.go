package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/multiauth/internal/service"
)

// OAuthServiceInterface defines the OAuth flow operations the handlers drive.
type OAuthServiceInterface interface {
	Authorize(ctx context.Context, providerName, redirectURI string) (service.AuthorizeResult, error)
	Callback(ctx context.Context, prior service.ClientSession, in service.CallbackInput) (service.Transition, error)
	Providers() []string
}

// AuthHandlers provides HTTP handlers for the OAuth authorization-code flow.
type AuthHandlers struct {
	Svc     OAuthServiceInterface
	Cookies *SessionCookies
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Authorize starts a provider sign-in.
// GET /auth/{provider}/authorize?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Authorize(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = "/"
	}

	result, err := h.Svc.Authorize(r.Context(), r.PathValue("provider"), redirectURI)
	if err != nil {
		writeFailure(w, r, failureParams{Cookies: h.Cookies, Logger: h.logger(), Err: err})
		return
	}

	h.Cookies.SetExchange(w, result.Exchange)
	http.Redirect(w, r, result.URL, http.StatusFound)
}

// Callback completes a provider sign-in. The exchange cookies are cleared on
// every outcome; session cookies are written only on success.
// GET /auth/{provider}/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.CallbackInput{
		Provider:         r.PathValue("provider"),
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		Exchange:         h.Cookies.ReadExchange(r),
	}
	h.Cookies.ClearExchange(w)

	tr, err := h.Svc.Callback(r.Context(), h.Cookies.ReadClientSession(r), in)
	if err == nil {
		err = h.Cookies.WriteTransition(w, tr)
	}
	if err != nil {
		writeFailure(w, r, failureParams{Cookies: h.Cookies, Logger: h.logger(), Err: err})
		return
	}
	http.Redirect(w, r, safeRedirectPath(tr.Redirect), http.StatusFound)
}

// Providers lists the configured provider names.
// GET /auth/providers.
func (h *AuthHandlers) Providers(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"providers": h.Svc.Providers()})
}

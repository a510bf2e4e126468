package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	errs "github.com/target/multiauth/internal/errors"
	"github.com/target/multiauth/internal/service"
)

const maxFormBytes = 1 << 20

// SignInErrorPath is where failed provider sign-ins land.
const SignInErrorPath = service.RedirectSignIn + "?error=oauth"

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// wantsJSON reports whether the caller expects a JSON body instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		IsHTMX(r) ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// redirect sends the browser to target. AJAX/HTMX requests get a JSON payload.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if wantsJSON(r) {
		if IsHTMX(r) {
			w.Header().Set("Hx-Redirect", target)
		}
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}
	status := http.StatusFound
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, target, status)
}

// failureParams groups what writeFailure needs (≤3 params rule).
type failureParams struct {
	Cookies *SessionCookies
	Logger  *slog.Logger
	Err     error
}

// writeFailure maps a service error onto the response. Unverifiable sessions
// are torn down; provider failures go back to the sign-in page.
func writeFailure(w http.ResponseWriter, r *http.Request, p failureParams) {
	err := p.Err
	switch {
	case errs.IsInvalidToken(err), errs.IsSessionInconsistent(err):
		p.Cookies.Clear(w)
		redirect(w, r, service.RedirectSignIn)
		return
	case errs.IsUpstream(err):
		p.Logger.WarnContext(r.Context(), "provider sign-in failed", "path", r.URL.Path, "error", err)
		redirect(w, r, SignInErrorPath)
		return
	}

	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		p.Logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	body := errorBody{
		Error:   string(errs.GetCode(err)),
		Message: publicMessage(err),
		Field:   errs.GetField(err),
	}
	if body.Error == "" {
		body.Error = string(errs.ErrCodeInternal)
	}
	WriteJSON(w, status, body)
}

func publicMessage(err error) string {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return appErr.PublicMessage()
	}
	return errs.MsgInternal
}

// formBinder is implemented by request types that accept url-encoded forms.
type formBinder interface {
	bindForm(form url.Values)
}

// bind decodes a JSON or form body into dst. It writes the error response and
// returns false on failure.
func bind(w http.ResponseWriter, r *http.Request, dst formBinder) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, dst); err != nil {
			writeBadRequest(w, "invalid_json", err)
			return false
		}
		return true
	}
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, "invalid_form", err)
		return false
	}
	dst.bindForm(r.PostForm)
	return true
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.ContainsAny(candidate, "\\\r\n") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

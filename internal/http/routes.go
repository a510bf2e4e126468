package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/multiauth/internal/domain/auth"
	"github.com/target/multiauth/internal/observability/statsd"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions SessionServiceInterface
	OAuth    OAuthServiceInterface // Optional: no provider routes when nil
	Cookies  *SessionCookies
	// Optional: CSRF protection for POST endpoints. Nil disables it.
	CSRF   *CSRFConfig
	Health map[string]HealthCheck
	// Optional: per-route request metrics. Nil disables them.
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	sessionHandlers := &SessionHandlers{Svc: services.Sessions, Cookies: services.Cookies, Logger: logger}
	instrument := Instrument(services.Metrics)
	registerSessionRoutes(mux, sessionHandlers, services, instrument)
	if services.OAuth != nil {
		authHandlers := &AuthHandlers{Svc: services.OAuth, Cookies: services.Cookies, Logger: logger}
		registerAuthRoutes(mux, authHandlers, instrument)
	}

	health := healthHandler(services.Health)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	var handler http.Handler = mux
	if services.CSRF != nil {
		handler = CSRFProtection(*services.CSRF)(handler)
	}
	return Recover(logger)(Logging(logger)(handler))
}

type instrumenter func(route string, next http.Handler) http.Handler

func registerSessionRoutes(mux *http.ServeMux, h *SessionHandlers, services RouterServices, m instrumenter) {
	requireSession := RequireSession(services.Sessions, services.Cookies)
	optionalSession := OptionalSession(services.Sessions, services.Cookies)
	public := func(route string, fn http.HandlerFunc) http.Handler { return m(route, fn) }
	private := func(route string, fn http.HandlerFunc) http.Handler { return m(route, requireSession(fn)) }

	mux.Handle("POST /sign-in", public("sign_in", h.SignIn))
	mux.Handle("POST /add-account", public("add_account", h.AddAccount))
	mux.Handle("POST /sign-up", public("sign_up", h.SignUp))

	mux.Handle("POST /sign-out", private("sign_out", h.SignOut))
	mux.Handle("POST /switch-account", private("switch_account", h.SwitchAccount))
	mux.Handle("POST /join", private("join", h.Join))
	mux.Handle("GET /{$}", private("index", h.Index))
	mux.Handle("GET /w/{slug}", private("select_workspace", h.SelectWorkspace))
	mux.Handle("GET /{slug}", notReserved(private("workspace", h.Workspace)))
	mux.Handle("GET /session", m("session", optionalSession(http.HandlerFunc(h.Session))))
}

// notReserved answers 404 for fixed route names that have no GET handler, so
// an anonymous GET /sign-in is not sent back to /sign-in.
func notReserved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domainauth.IsReservedSlug(r.PathValue("slug")) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, m instrumenter) {
	mux.Handle("GET /auth/providers", m("oauth_providers", http.HandlerFunc(h.Providers)))
	mux.Handle("GET /auth/{provider}/authorize", m("oauth_authorize", http.HandlerFunc(h.Authorize)))
	mux.Handle("GET /auth/{provider}/callback", m("oauth_callback", http.HandlerFunc(h.Callback)))
}

package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/multiauth/config"
	httpx "github.com/target/multiauth/internal/http"
	"github.com/target/multiauth/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

// HTTPHandlerConfig contains what the HTTP handler is built from.
type HTTPHandlerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Redis    redis.UniversalClient
	Metrics  *statsd.Client // Optional
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router with cookies, CSRF and health checks.
func BuildHTTPHandler(cfg HTTPHandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	cookieOpts := httpx.CookieOptions{
		Domain: appCfg.Auth.Cookie.Domain,
		Secure: appCfg.Auth.Cookie.Secure,
	}
	services := httpx.RouterServices{
		Sessions: cfg.Services.Sessions,
		Cookies:  httpx.NewSessionCookies(cookieOpts),
		Health:   healthChecks(cfg.DB, cfg.Redis),
		Logger:   logger,
	}
	// A nil *OAuthService must stay a nil interface.
	if cfg.Services.OAuth != nil {
		services.OAuth = cfg.Services.OAuth
	}
	if cfg.Metrics != nil {
		services.Metrics = cfg.Metrics
	}
	if appCfg.HTTP.CSRFEnabled {
		services.CSRF = &httpx.CSRFConfig{Cookie: cookieOpts}
	}
	return httpx.NewRouter(services)
}

func healthChecks(db *sql.DB, client redis.UniversalClient) map[string]httpx.HealthCheck {
	checks := map[string]httpx.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

// NewHTTPServer returns a server with conservative timeouts.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeParams groups the inputs of Serve.
type ServeParams struct {
	Server *http.Server
	// Listener is optional; Serve listens on Server.Addr when nil.
	Listener        net.Listener
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Serve runs the server until ctx is canceled, then drains in-flight
// requests for at most ShutdownTimeout.
func Serve(ctx context.Context, p ServeParams) error {
	if p.Server == nil {
		return errors.New("server is required")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := p.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if p.Listener != nil {
			logger.InfoContext(ctx, "starting HTTP server", "addr", p.Listener.Addr().String())
			err = p.Server.Serve(p.Listener)
		} else {
			logger.InfoContext(ctx, "starting HTTP server", "addr", p.Server.Addr)
			err = p.Server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := p.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.InfoContext(ctx, "HTTP server stopped")
		return nil
	})
	return g.Wait()
}

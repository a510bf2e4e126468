package bootstrap

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/multiauth/config"
	"github.com/target/multiauth/internal/adapters/password"
	redisadapter "github.com/target/multiauth/internal/adapters/redis"
	"github.com/target/multiauth/internal/data"
	"github.com/target/multiauth/internal/data/pgxutil"
	"github.com/target/multiauth/internal/ports"
	"github.com/target/multiauth/internal/service"
)

// ServiceDeps contains the infrastructure the services are built on.
type ServiceDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  redis.UniversalClient // Optional: nil disables login throttling
	Logger *slog.Logger
}

// ServiceContainer holds the constructed services.
type ServiceContainer struct {
	Identity *service.IdentityService
	Sessions *service.SessionService
	OAuth    *service.OAuthService // nil when no provider is configured
}

// NewServices wires repositories, adapters and services together.
func NewServices(deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("config and database are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auth := deps.Config.Auth

	codec, err := BuildTokenCodec(auth.Token, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	identity := service.NewIdentityService(service.IdentityServiceOptions{
		Stores: service.IdentityStores{
			Accounts:   data.NewAccountRepo(deps.DB),
			Workspaces: data.NewWorkspaceRepo(deps.DB),
			Tx:         pgxutil.NewTxManager(deps.DB, logger),
		},
		Hasher: password.NewHasher(password.DefaultParams),
		Logger: logger,
	})

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Identity: identity,
		Tokens:   codec,
		Throttle: buildThrottle(auth.Throttle, deps.Redis, logger),
		Logger:   logger,
	})

	container := ServiceContainer{Identity: identity, Sessions: sessions}
	if registry := BuildProviderRegistry(auth.OAuth, logger); registry != nil {
		container.OAuth = service.NewOAuthService(
			service.OAuthServiceOptions{Providers: registry, Identity: identity, Sessions: sessions},
			service.OAuthServiceConfig{ExchangeTimeout: auth.OAuth.ExchangeTimeout, Logger: logger},
		)
	}
	return container, nil
}

func buildThrottle(cfg config.ThrottleConfig, client redis.UniversalClient, logger *slog.Logger) ports.LoginThrottle {
	if !cfg.Enabled || client == nil {
		logger.Info("login throttling disabled", "configured", cfg.Enabled, "redis", client != nil)
		return nil
	}
	return redisadapter.NewLoginThrottle(client, redisadapter.ThrottleOptions{
		MaxFailures: cfg.MaxFailures,
		Window:      cfg.Window,
	})
}

package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/ecrec/storefront-auth/config"
	"github.com/ecrec/storefront-auth/internal/adapters/authapi"
	"github.com/ecrec/storefront-auth/internal/adapters/devauthn"
	"github.com/ecrec/storefront-auth/internal/adapters/redistoken"
	domainauth "github.com/ecrec/storefront-auth/internal/domain/auth"
	httpx "github.com/ecrec/storefront-auth/internal/http"
	"github.com/ecrec/storefront-auth/internal/observability/statsd"
	"github.com/ecrec/storefront-auth/internal/ports"
	"github.com/ecrec/storefront-auth/internal/routeguard"
	"github.com/ecrec/storefront-auth/internal/service"
	"github.com/ecrec/storefront-auth/internal/tokenstore"
)

// App holds the wired application components.
type App struct {
	Config  config.AppConfig
	Logger  *slog.Logger
	Redis   redis.UniversalClient
	Metrics *statsd.Client
	Handler http.Handler
}

// BuildApp wires the full service: metrics, redis, the auth service client,
// the passkey ceremony, the route guard, and the HTTP surface.
func BuildApp(cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	metrics, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  "storefront_auth",
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	rdb, err := ConnectRedis(cfg.Redis, logger)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), metrics.Close())
	}

	api := authapi.NewClient(authapi.Options{
		BaseURL:    cfg.Auth.ServiceURL,
		HTTPClient: &http.Client{Timeout: cfg.Auth.Timeout},
	})

	var devUser *domainauth.User
	if cfg.Auth.SkipAuth {
		devUser = &domainauth.User{
			ID:            cfg.Auth.DevAuth.UserID,
			Email:         cfg.Auth.DevAuth.Email,
			EmailVerified: true,
			DisplayName:   cfg.Auth.DevAuth.Name,
		}
		logger.Warn("authentication is disabled, using development identity", "user", devUser.Email)
	}

	// A real platform authenticator only exists on end-user devices; outside
	// development the ceremony runs with authenticators injected by library
	// consumers, and the HTTP passkey endpoints report unsupported.
	var authenticator ports.Authenticator
	if cfg.IsDev {
		authenticator = &devauthn.Authenticator{Origin: cfg.HTTP.BaseURL}
	}

	ceremony := service.NewPasskeyCeremony(service.PasskeyCeremonyOptions{
		API:           api,
		Authenticator: authenticator,
		Logger:        logger,
		Metrics:       metrics,
		RPID:          cfg.Auth.Passkey.RPID,
		RPName:        cfg.Auth.Passkey.RPName,
	})

	guard := routeguard.New(routeguard.Options{
		Validator: api,
		Logger:    logger,
		Metrics:   metrics,
		SkipAuth:  cfg.Auth.SkipAuth,
	})

	auth := httpx.NewAuthHandler(httpx.AuthHandlerOptions{
		API: api,
		Backend: func(clientID string) tokenstore.Backend {
			return redistoken.NewStore(rdb, clientID)
		},
		Ceremony:     ceremony,
		Logger:       logger,
		Metrics:      metrics,
		CookieDomain: cfg.HTTP.CookieDomain,
		DevUser:      devUser,
	})

	handler := httpx.NewRouter(httpx.RouterOptions{
		Auth:    auth,
		Guard:   guard,
		Logger:  logger,
		Metrics: metrics,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Redis:   rdb,
		Metrics: metrics,
		Handler: handler,
	}, nil
}

// Close releases held connections.
func (a *App) Close() error {
	return errors.Join(a.Redis.Close(), a.Metrics.Close())
}

// Package di wires the application graph: store backend, repository stack,
// usecases and HTTP handlers.
package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"travel-account-service/cmd/api/infrastructure"
	"travel-account-service/internal/adapter/cache"
	"travel-account-service/internal/adapter/db/docstore"
	ginhandler "travel-account-service/internal/adapter/gin/handler"
	"travel-account-service/internal/adapter/lockout"
	"travel-account-service/internal/adapter/repository/cached"
	"travel-account-service/internal/audit"
	"travel-account-service/internal/auth/provider"
	"travel-account-service/internal/auth/session"
	"travel-account-service/internal/config"
	store "travel-account-service/internal/docstore"
	"travel-account-service/internal/docstore/redisstore"
	"travel-account-service/internal/docstore/sqlstore"
	domain "travel-account-service/internal/domain/user"
	"travel-account-service/internal/usecase/account"
	"travel-account-service/internal/usecase/signin"
	redisclient "travel-account-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Sessions    *session.Manager
	Providers   *provider.Registry

	AuthHandler    *ginhandler.AuthHandler
	AccountHandler *ginhandler.AccountHandler

	userStore store.Store[*domain.User]
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	// Redis backs the cache, lockout policy and rate limiter regardless of
	// the chosen store backend.
	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	userStore, err := c.newUserStore()
	if err != nil {
		return nil, err
	}
	c.userStore = userStore

	// Repository stack: docstore repository wrapped in the cache decorator
	userCache := cache.NewRedisUserCache(rdb.Client, time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
	repo := cached.NewCachedUserRepository(docstore.NewUserRepo(userStore, l), userCache, l)

	// Auth collaborators
	c.Sessions = session.NewManager(session.Config{
		Secret:        cfg.Session.Secret,
		TTL:           cfg.Session.TTL(),
		PersistentTTL: cfg.Session.PersistentTTL(),
		Issuer:        cfg.Session.Issuer,
	}, l)

	lock := lockout.NewRedisLockout(rdb.Client, lockout.Config{
		MaxFailures:   cfg.Lockout.MaxFailures,
		WindowSeconds: cfg.Lockout.WindowSeconds,
		Enabled:       cfg.Lockout.Enabled,
	}, l)

	c.Providers = newProviderRegistry(cfg)

	rec := audit.NewRecorder(l)

	// Usecases and handlers
	orchestrator := signin.New(repo, c.Sessions, lock, rec, l)
	accountUC := account.New(repo, rec, l)

	c.AuthHandler = ginhandler.NewAuthHandler(c.Providers, orchestrator, c.Sessions, rec, l)
	c.AccountHandler = ginhandler.NewAccountHandler(accountUC, l)

	return c, nil
}

// newUserStore builds the document store for the configured backend.
func (c *Container) newUserStore() (store.Store[*domain.User], error) {
	newUser := func() *domain.User { return &domain.User{} }

	switch c.Config.Store.Backend {
	case "redis":
		return redisstore.New(c.RedisClient.Client, c.Config.Store.Collection, newUser, c.Logger), nil

	case "postgres", "sqlite":
		db, err := infrastructure.NewDatabase(c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		s, err := sqlstore.New(db, c.Config.Store.Collection, newUser, c.Logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Config.Store.Backend)
	}
}

// newProviderRegistry builds the registry from the providers that have
// credentials configured.
func newProviderRegistry(cfg *config.Config) *provider.Registry {
	var providers []provider.Provider

	if cfg.Providers.Amazon.ClientID != "" {
		providers = append(providers, provider.NewAmazon(
			cfg.Providers.Amazon.ClientID,
			cfg.Providers.Amazon.ClientSecret,
			cfg.Providers.RedirectURL,
		))
	}
	if cfg.Providers.Google.ClientID != "" {
		providers = append(providers, provider.NewGoogle(
			cfg.Providers.Google.ClientID,
			cfg.Providers.Google.ClientSecret,
			cfg.Providers.RedirectURL,
		))
	}

	return provider.NewRegistry(providers...)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.userStore != nil {
		if err := c.userStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close user store: %w", err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}

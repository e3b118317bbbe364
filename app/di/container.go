package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"token-service/app/config"
	"token-service/app/domain"
	"token-service/app/driver/postgres"
	"token-service/app/gateway"
	"token-service/app/port"
	"token-service/app/rest"
	"token-service/app/token"
	"token-service/app/usecase"
	"token-service/app/utils/validator"
)

// Container holds all dependencies for the application
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *config.Registry

	// Drivers
	Resolver *postgres.Resolver

	// Gateways
	StoreProvider      port.StoreProvider
	CredentialVerifier port.CredentialVerifier

	// Token codec
	Issuer   *token.Issuer
	Verifier *token.Verifier

	// Usecases
	AuthUsecase port.AuthUsecase
	Sweeper     *usecase.CleanupSweeper

	Validator *validator.Validator
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	registry, err := config.LoadRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}
	container.Registry = registry

	// Pools open lazily on first use per tenant
	container.Resolver = postgres.NewResolver(registry, logger)

	container.StoreProvider = gateway.NewStoreProvider(registry, container.Resolver, logger)
	container.CredentialVerifier = gateway.NewCredentialGateway(logger)

	container.Issuer = token.NewIssuer(cfg)
	container.Verifier = token.NewVerifier(cfg)

	container.AuthUsecase = usecase.NewAuthUsecase(
		cfg,
		container.StoreProvider,
		container.CredentialVerifier,
		container.Issuer,
		container.Verifier,
		logger,
	)
	container.Sweeper = usecase.NewCleanupSweeper(cfg, registry, container.StoreProvider, logger)

	container.Validator = validator.New()

	logger.Info("container initialized",
		"tenants", len(registry.IDs()),
		"cleanup_interval", cfg.CleanupInterval)

	return container, nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	routerConfig := rest.RouterConfig{
		Logger:       c.Logger,
		AuthUsecase:  c.AuthUsecase,
		Validator:    c.Validator,
		StorageCheck: c.storageCheck,
		EnableDebug:  c.Config.LogLevel == "debug",
	}

	return rest.NewRouter(routerConfig)
}

// storageCheck pings one tenant's pool for the readiness probe. The
// default tenant is preferred; a registry without one probes the first
// configured tenant instead.
func (c *Container) storageCheck(ctx context.Context) error {
	ids := c.Registry.IDs()
	if len(ids) == 0 {
		return fmt.Errorf("no tenants configured")
	}

	probe := ids[0]
	if c.Registry.Has(domain.DefaultTenantID) {
		probe = domain.DefaultTenantID
	}

	handle, err := c.Resolver.Resolve(ctx, probe)
	if err != nil {
		return err
	}
	return handle.HealthCheck(ctx)
}

// Close closes all resources
func (c *Container) Close() error {
	if c.Resolver != nil {
		c.Resolver.Shutdown()
	}

	c.Logger.Info("container closed")
	return nil
}

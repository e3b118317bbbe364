package gateway

import (
	"context"
	"log/slog"

	"token-service/app/config"
	"token-service/app/driver/postgres"
	"token-service/app/port"
)

// StoreProvider implements port.StoreProvider: it routes a tenant
// identifier through the registry and connection resolver to that
// tenant's repositories. Repositories are cheap views over the cached
// pool, so they are built per call.
type StoreProvider struct {
	registry *config.Registry
	resolver *postgres.Resolver
	logger   *slog.Logger
}

// NewStoreProvider creates a provider over the registry and resolver
func NewStoreProvider(registry *config.Registry, resolver *postgres.Resolver, logger *slog.Logger) port.StoreProvider {
	return &StoreProvider{
		registry: registry,
		resolver: resolver,
		logger:   logger,
	}
}

// TokenStore returns the refresh-token store for a tenant
func (p *StoreProvider) TokenStore(ctx context.Context, tenantID string) (port.TokenStore, error) {
	tenant, err := p.registry.Get(tenantID)
	if err != nil {
		return nil, err
	}

	handle, err := p.resolver.Resolve(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	return postgres.NewTokenRepository(handle.Pool(), tenant.Tables.RefreshTokens, p.logger), nil
}

// UserStore returns the user store for a tenant
func (p *StoreProvider) UserStore(ctx context.Context, tenantID string) (port.UserStore, error) {
	tenant, err := p.registry.Get(tenantID)
	if err != nil {
		return nil, err
	}

	handle, err := p.resolver.Resolve(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	return postgres.NewUserRepository(handle.Pool(), tenant.Tables.Users, p.logger), nil
}

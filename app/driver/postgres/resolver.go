package postgres

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"token-service/app/config"
	"token-service/app/domain"
)

// Resolver lazily creates and caches one connection pool per tenant.
// The singleflight group is the per-key initialization barrier: two
// concurrent first resolutions of the same tenant share one pool
// construction, while unrelated tenants resolve independently.
type Resolver struct {
	registry *config.Registry
	logger   *slog.Logger
	group    singleflight.Group
	open     func(ctx context.Context, tenant *domain.Tenant, logger *slog.Logger) (*DB, error)

	mu      sync.RWMutex
	handles map[string]*DB
}

// NewResolver creates a resolver backed by the tenant registry
func NewResolver(registry *config.Registry, logger *slog.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		logger:   logger.With("component", "connection_resolver"),
		open:     NewPool,
		handles:  make(map[string]*DB),
	}
}

// Resolve returns the storage handle for a tenant, creating and caching
// the pool on first use. An empty tenant id resolves to the default
// tenant per registry semantics.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*DB, error) {
	tenant, err := r.registry.Get(tenantID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	handle, ok := r.handles[tenant.ID]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	result, err, _ := r.group.Do(tenant.ID, func() (interface{}, error) {
		// a racing resolution may have cached the handle while this call
		// waited on the group
		r.mu.RLock()
		existing, ok := r.handles[tenant.ID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		db, err := r.open(ctx, tenant, r.logger)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.handles[tenant.ID] = db
		r.mu.Unlock()

		r.logger.Info("tenant storage handle created", "tenant_id", tenant.ID)
		return db, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*DB), nil
}

// Shutdown closes every cached handle and clears the cache. Safe to
// call with zero cached handles.
func (r *Resolver) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for tenantID, handle := range r.handles {
		handle.Close()
		r.logger.Info("tenant storage handle closed", "tenant_id", tenantID)
	}
	r.handles = make(map[string]*DB)
}

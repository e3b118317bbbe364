package usecase

import (
	"context"
	"log/slog"
	"time"

	"token-service/app/config"
	"token-service/app/port"
)

// CleanupSweeper walks every registered tenant on a fixed interval and
// deletes expired refresh-token rows. One tenant's failure never stops
// the sweep; the remaining tenants are still visited.
type CleanupSweeper struct {
	registry *config.Registry
	provider port.StoreProvider
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewCleanupSweeper creates a sweeper over all registered tenants
func NewCleanupSweeper(cfg *config.Config, registry *config.Registry, provider port.StoreProvider, logger *slog.Logger) *CleanupSweeper {
	return &CleanupSweeper{
		registry: registry,
		provider: provider,
		logger:   logger.With("component", "cleanup_sweeper"),
		interval: cfg.CleanupInterval,
		now:      time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled. The first
// sweep happens immediately so a long interval does not delay cleanup
// after a restart.
func (s *CleanupSweeper) Start(ctx context.Context) {
	go func() {
		s.SweepAll(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("cleanup sweeper stopped")
				return
			case <-ticker.C:
				s.SweepAll(ctx)
			}
		}
	}()
}

// SweepAll visits each tenant once and deletes its expired rows,
// returning the total number deleted across tenants.
func (s *CleanupSweeper) SweepAll(ctx context.Context) int64 {
	now := s.now()
	var total int64

	for _, tenantID := range s.registry.IDs() {
		store, err := s.provider.TokenStore(ctx, tenantID)
		if err != nil {
			s.logger.Error("sweep skipped tenant", "tenant_id", tenantID, "error", err)
			continue
		}

		deleted, err := store.DeleteExpired(ctx, now)
		if err != nil {
			s.logger.Error("sweep failed for tenant", "tenant_id", tenantID, "error", err)
			continue
		}

		total += deleted
		if deleted > 0 {
			s.logger.Info("sweep removed expired tokens", "tenant_id", tenantID, "deleted", deleted)
		}
	}

	s.logger.Debug("sweep completed", "deleted_total", total)
	return total
}

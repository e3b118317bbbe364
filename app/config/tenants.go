package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"token-service/app/domain"
	apperrors "token-service/app/utils/errors"
)

// Registry maps tenant identifiers to their fully merged configuration.
// Built once at startup, immutable for the process lifetime.
type Registry struct {
	tenants map[string]*domain.Tenant
}

// tenantsFile is the on-disk shape of the tenants YAML file.
type tenantsFile struct {
	Tenants map[string]struct {
		DB     domain.DBConfig    `yaml:"db"`
		Tables domain.TableConfig `yaml:"tables"`
	} `yaml:"tenants"`
}

// LoadRegistry builds the tenant registry. When cfg.TenantsFile names a
// YAML file, every entry is merged over the process-wide database and
// table defaults at load time. Without a file the registry holds a
// single default tenant assembled from those defaults.
func LoadRegistry(cfg *Config) (*Registry, error) {
	tenants := make(map[string]*domain.Tenant)

	if cfg.TenantsFile == "" {
		tenants[domain.DefaultTenantID] = &domain.Tenant{
			ID:     domain.DefaultTenantID,
			DB:     defaultDBConfig(cfg),
			Tables: defaultTableConfig(cfg),
		}
		return &Registry{tenants: tenants}, nil
	}

	raw, err := os.ReadFile(cfg.TenantsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file %s: %w", cfg.TenantsFile, err)
	}

	var file tenantsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file %s: %w", cfg.TenantsFile, err)
	}

	if len(file.Tenants) == 0 {
		return nil, fmt.Errorf("tenants file %s defines no tenants", cfg.TenantsFile)
	}

	for id, entry := range file.Tenants {
		tenants[id] = &domain.Tenant{
			ID:     id,
			DB:     mergeDBConfig(defaultDBConfig(cfg), entry.DB),
			Tables: mergeTableConfig(defaultTableConfig(cfg), entry.Tables),
		}
	}

	return &Registry{tenants: tenants}, nil
}

// NewRegistry builds a registry from already-merged tenants. Intended
// for tests and embedded setups.
func NewRegistry(tenants map[string]*domain.Tenant) *Registry {
	copied := make(map[string]*domain.Tenant, len(tenants))
	for id, tenant := range tenants {
		copied[id] = tenant
	}
	return &Registry{tenants: copied}
}

// Get resolves a tenant identifier to its configuration. An empty id
// means the implicit default tenant; requests fail closed when no
// default entry is configured.
func (r *Registry) Get(id string) (*domain.Tenant, error) {
	if id == "" {
		id = domain.DefaultTenantID
	}

	tenant, ok := r.tenants[id]
	if !ok {
		if id == domain.DefaultTenantID {
			return nil, apperrors.ErrTenantDisabled
		}
		return nil, apperrors.ErrTenantUnknown.WithDetails(id)
	}

	return tenant, nil
}

// Has reports whether the registry holds the given tenant id.
func (r *Registry) Has(id string) bool {
	_, ok := r.tenants[id]
	return ok
}

// IDs returns all configured tenant identifiers in stable order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func defaultDBConfig(cfg *Config) domain.DBConfig {
	return domain.DBConfig{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}
}

func defaultTableConfig(cfg *Config) domain.TableConfig {
	return domain.TableConfig{
		Users:         cfg.UsersTable,
		RefreshTokens: cfg.RefreshTokensTable,
	}
}

func mergeDBConfig(base, override domain.DBConfig) domain.DBConfig {
	if override.Host != "" {
		base.Host = override.Host
	}
	if override.Port != "" {
		base.Port = override.Port
	}
	if override.User != "" {
		base.User = override.User
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	if override.Database != "" {
		base.Database = override.Database
	}
	if override.SSLMode != "" {
		base.SSLMode = override.SSLMode
	}
	return base
}

func mergeTableConfig(base, override domain.TableConfig) domain.TableConfig {
	if override.Users != "" {
		base.Users = override.Users
	}
	if override.RefreshTokens != "" {
		base.RefreshTokens = override.RefreshTokens
	}
	return base
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-service/app/domain"
	apperrors "token-service/app/utils/errors"
)

func baseConfig() *Config {
	return &Config{
		DatabaseHost:       "localhost",
		DatabasePort:       "5432",
		DatabaseName:       "token_db",
		DatabaseUser:       "token_user",
		DatabasePassword:   "secret",
		DatabaseSSLMode:    "disable",
		UsersTable:         "users",
		RefreshTokensTable: "refresh_tokens",
	}
}

func writeTenantsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRegistry_WithoutFile(t *testing.T) {
	registry, err := LoadRegistry(baseConfig())
	require.NoError(t, err)

	tenant, err := registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTenantID, tenant.ID)
	assert.Equal(t, "token_db", tenant.DB.Database)
	assert.Equal(t, "refresh_tokens", tenant.Tables.RefreshTokens)
}

func TestLoadRegistry_MergesDefaults(t *testing.T) {
	cfg := baseConfig()
	cfg.TenantsFile = writeTenantsFile(t, `
tenants:
  default:
    db:
      database: main_auth
  acme:
    db:
      host: acme-postgres
      database: acme_auth
      password: acme-secret
    tables:
      users: acme_users
`)

	registry, err := LoadRegistry(cfg)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"acme", "default"}, registry.IDs())

	def, err := registry.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "main_auth", def.DB.Database)
	assert.Equal(t, "localhost", def.DB.Host, "unset fields fall back to process defaults")

	acme, err := registry.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "acme-postgres", acme.DB.Host)
	assert.Equal(t, "acme-secret", acme.DB.Password)
	assert.Equal(t, "5432", acme.DB.Port)
	assert.Equal(t, "acme_users", acme.Tables.Users)
	assert.Equal(t, "refresh_tokens", acme.Tables.RefreshTokens)
}

func TestRegistry_UnknownTenant(t *testing.T) {
	registry, err := LoadRegistry(baseConfig())
	require.NoError(t, err)

	_, err = registry.Get("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTenantUnknown))
}

func TestRegistry_DisabledDefault(t *testing.T) {
	cfg := baseConfig()
	cfg.TenantsFile = writeTenantsFile(t, `
tenants:
  acme:
    db:
      database: acme_auth
`)

	registry, err := LoadRegistry(cfg)
	require.NoError(t, err)

	// implicit default
	_, err = registry.Get("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTenantDisabled))

	// explicit default
	_, err = registry.Get(domain.DefaultTenantID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTenantDisabled))
}

func TestLoadRegistry_FileErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.TenantsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadRegistry(cfg)
	assert.Error(t, err)

	cfg.TenantsFile = writeTenantsFile(t, "tenants: [not, a, map]")
	_, err = LoadRegistry(cfg)
	assert.Error(t, err)

	cfg.TenantsFile = writeTenantsFile(t, "tenants: {}")
	_, err = LoadRegistry(cfg)
	assert.Error(t, err)
}

func TestRegistry_Has(t *testing.T) {
	registry := NewRegistry(map[string]*domain.Tenant{
		"acme": {ID: "acme"},
	})

	assert.True(t, registry.Has("acme"))
	assert.False(t, registry.Has("default"))
}

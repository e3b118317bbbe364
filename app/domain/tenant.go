package domain

import "fmt"

// DefaultTenantID is the tenant used when a request carries no tenant
// identifier.
const DefaultTenantID = "default"

// DBConfig holds the storage connection parameters for one tenant.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds the PostgreSQL connection string for this tenant
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// TableConfig holds per-tenant table name overrides.
type TableConfig struct {
	Users         string `yaml:"users"`
	RefreshTokens string `yaml:"refresh_tokens"`
}

// Tenant is one isolated logical deployment: its own storage connection
// parameters and table names. Immutable after registry load.
type Tenant struct {
	ID     string      `yaml:"-"`
	DB     DBConfig    `yaml:"db"`
	Tables TableConfig `yaml:"tables"`
}

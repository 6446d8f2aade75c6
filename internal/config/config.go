package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/meltforce/liftprog/internal/progression"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Program   ProgramConfig   `yaml:"program"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr is the plain TCP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type ProgramConfig struct {
	// CatalogPath points at a YAML phase catalog. Empty uses the built-in program.
	CatalogPath string `yaml:"catalog_path"`
	// Unit is the default display unit, "lbs" or "kg".
	Unit string `yaml:"unit"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, fills defaults, then applies
// environment variable overrides. Env vars use the prefix LIFTPROG_:
//
//	LIFTPROG_SERVER_HOST, LIFTPROG_SERVER_PORT,
//	LIFTPROG_STORAGE_DRIVER, LIFTPROG_SQLITE_PATH,
//	LIFTPROG_DB_HOST, LIFTPROG_DB_PORT, LIFTPROG_DB_NAME,
//	LIFTPROG_DB_USER, LIFTPROG_DB_PASSWORD, LIFTPROG_DB_SSLMODE,
//	LIFTPROG_AUTH_API_KEY,
//	LIFTPROG_TAILSCALE_ENABLED, LIFTPROG_TAILSCALE_HOSTNAME, LIFTPROG_TAILSCALE_STATE_DIR,
//	LIFTPROG_CATALOG_PATH, LIFTPROG_UNIT
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/liftprog.db"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "liftprog"
	}
	if cfg.Tailscale.StateDir == "" {
		cfg.Tailscale.StateDir = "data/tsnet"
	}
	if cfg.Program.Unit == "" {
		cfg.Program.Unit = string(progression.Pounds)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTPROG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTPROG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTPROG_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("LIFTPROG_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LIFTPROG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIFTPROG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIFTPROG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIFTPROG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIFTPROG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIFTPROG_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIFTPROG_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIFTPROG_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("LIFTPROG_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("LIFTPROG_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("LIFTPROG_CATALOG_PATH"); v != "" {
		cfg.Program.CatalogPath = v
	}
	if v := os.Getenv("LIFTPROG_UNIT"); v != "" {
		cfg.Program.Unit = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Storage.Driver)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := progression.ParseUnit(c.Program.Unit); err != nil {
		return fmt.Errorf("program.unit: %w", err)
	}
	return nil
}

// DisplayUnit is the configured default unit.
func (c *Config) DisplayUnit() progression.Unit {
	u, err := progression.ParseUnit(c.Program.Unit)
	if err != nil {
		return progression.Pounds
	}
	return u
}

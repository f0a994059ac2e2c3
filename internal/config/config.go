// Package config loads server and CLI settings: built-in defaults, then an
// optional TOML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// FileEnv names the variable holding the optional config file path.
const FileEnv = "TASKFEED_CONFIG"

var ErrInvalid = errors.New("invalid config")

type StoreConfig struct {
	Driver        string `toml:"driver"`
	DatabaseURL   string `toml:"database_url"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

type AuthConfig struct {
	Secret   string   `toml:"secret"`
	Issuer   string   `toml:"issuer"`
	TokenTTL Duration `toml:"token_ttl"`
}

type Config struct {
	Port     string      `toml:"port"`
	LogLevel string      `toml:"log_level"`
	Store    StoreConfig `toml:"store"`
	Auth     AuthConfig  `toml:"auth"`
}

// Duration is a time.Duration written as "24h" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		Store: StoreConfig{
			Driver:        DriverPostgres,
			DatabaseURL:   "postgres://localhost:5432/taskfeed",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "taskfeed",
		},
		Auth: AuthConfig{
			Issuer:   "taskfeed",
			TokenTTL: Duration(24 * time.Hour),
		},
	}
}

// Load builds the configuration from defaults, the file named by
// TASKFEED_CONFIG (if set) and the environment.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.DatabaseURL = getEnv("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.MongoURI = getEnv("MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = getEnv("MONGO_DATABASE", c.Store.MongoDatabase)
	c.Auth.Secret = getEnv("JWT_SECRET", c.Auth.Secret)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: TOKEN_TTL: %w", ErrInvalid, err)
		}
		c.Auth.TokenTTL = Duration(ttl)
	}
	return nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres driver", ErrInvalid)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return fmt.Errorf("%w: mongo_uri and mongo_database are required for the mongo driver", ErrInvalid)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET must be set", ErrInvalid)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalid)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package config loads the settings of the fol command from the environment.
//
// Variables are read from the process environment, after loading an optional
// .env file. Every variable is prefixed with FOLIO_.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting.
type Config struct {
	// DatabaseURL is a SQLite file path or a postgres:// URL.
	DatabaseURL string `envconfig:"DATABASE_URL" default:"data/portfolio.db" validate:"required"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	AssetType   string `envconfig:"ASSET_TYPE" default:"all"`
	CostBasis   string `envconfig:"COST_BASIS" default:"fifo" validate:"oneof=fifo FIFO"`
	Env         string `envconfig:"ENV" default:"production" validate:"oneof=development production test"`
}

// Prefix is prepended to every variable name.
const Prefix = "FOLIO"

// Load reads the first readable env file among files, or ./.env when none is
// given, then the environment. A missing env file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnv reads and validates the configuration from the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Env = strings.ToLower(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Development reports whether SQL statements should be logged.
func (c *Config) Development() bool { return c.Env == "development" }

// Masked returns the database URL with its password hidden.
func (c *Config) Masked() string {
	u := c.DatabaseURL
	scheme := strings.Index(u, "://")
	at := strings.LastIndex(u, "@")
	if scheme < 0 || at < scheme {
		return u
	}
	creds := u[scheme+3 : at]
	if user, _, ok := strings.Cut(creds, ":"); ok {
		return u[:scheme+3] + user + ":****" + u[at:]
	}
	return u
}

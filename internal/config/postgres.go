package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/sethvargo/go-envconfig"
)

// PostgresConfig locates the history database.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST, required"`
	Port     string `env:"POSTGRES_PORT, default=5432"`
	Username string `env:"POSTGRES_USERNAME, required"`
	Password string `env:"POSTGRES_PASSWORD, required"`
	Database string `env:"POSTGRES_DATABASE, default=jukebox"`
	SSLMode  string `env:"POSTGRES_SSLMODE, default=disable"`
	// MaxConns caps the pool. Zero leaves pgx's default.
	MaxConns int `env:"POSTGRES_MAX_CONNS"`
}

func NewPostgresConfigFromEnv() (*PostgresConfig, error) {
	var cfg PostgresConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxConns < 0 {
		return nil, fmt.Errorf("POSTGRES_MAX_CONNS must not be negative, got %d", cfg.MaxConns)
	}

	return &cfg, nil
}

// DSN renders the config as a pgx connection URL. Credentials are escaped.
func (c *PostgresConfig) DSN() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.MaxConns > 0 {
		query.Set("pool_max_conns", strconv.Itoa(c.MaxConns))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

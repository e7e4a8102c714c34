package server

import (
	"fmt"
	"time"

	"github.com/openmined/dirsync/internal/server/store"
)

const (
	DefaultAddr         = "127.0.0.1:8000"
	DefaultDBPath       = ".data/dirsync.db"
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 5 * time.Minute
	DefaultIdleTimeout  = 2 * time.Minute
)

type Config struct {
	HTTP     HTTPConfig   `mapstructure:"http"`
	Store    store.Config `mapstructure:"store"`
	DBPath   string       `mapstructure:"db_path"`
	LogLevel string       `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    string        `mapstructure:"rate_limit"`
}

func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path required")
	}
	return nil
}

func (c *HTTPConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr required")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("cert_file and key_file must be set together")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

package client

import (
	"fmt"
	"time"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/utils"
)

const (
	DefaultWatchDir       = "source"
	DefaultServerURL      = "http://localhost:8000/"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRetryCount     = 3
)

type Config struct {
	WatchDir       string        `mapstructure:"watch_dir"`
	ServerURL      string        `mapstructure:"server_url"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryCount     int           `mapstructure:"retry_count"`
	ScanOnStart    bool          `mapstructure:"scan_on_start"`
	LogLevel       string        `mapstructure:"log_level"`
}

func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return fmt.Errorf("watch_dir required")
	}
	if !utils.IsValidURL(c.ServerURL) {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if err := chunker.ValidateChunkSize(c.ChunkSize); err != nil {
		return fmt.Errorf("chunk_size: %w", err)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry_count must not be negative")
	}
	return nil
}

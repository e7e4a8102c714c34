package client

import (
	"testing"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		WatchDir:       DefaultWatchDir,
		ServerURL:      DefaultServerURL,
		ChunkSize:      chunker.DefaultChunkSize,
		RequestTimeout: DefaultRequestTimeout,
		RetryCount:     DefaultRetryCount,
		ScanOnStart:    true,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no watch dir", func(c *Config) { c.WatchDir = "" }, true},
		{"bad server url", func(c *Config) { c.ServerURL = "localhost:8000" }, true},
		{"chunk size too small", func(c *Config) { c.ChunkSize = 100 }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -1 }, true},
		{"negative retries", func(c *Config) { c.RetryCount = -1 }, true},
		{"no retries", func(c *Config) { c.RetryCount = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ServerURL = ""
	_, err := New(cfg)
	assert.Error(t, err)
}

package syncsdk

import (
	"fmt"
	"time"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/utils"
)

const (
	DefaultBaseURL    = "http://localhost:8000/"
	DefaultTimeout    = 30 * time.Second
	DefaultRetryCount = 3
)

// Config is the configuration for the sync client
type Config struct {
	BaseURL    string        // BaseURL is required
	Timeout    time.Duration // Timeout bounds a single attempt, 0 uses DefaultTimeout
	RetryCount int           // RetryCount is the number of retries after the first attempt
	ChunkSize  int           // ChunkSize caps UploadChunk bodies
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}
	if !utils.IsValidURL(c.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidServerURL, c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("sdk: timeout must not be negative")
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("sdk: retry count must not be negative")
	}
	if err := chunker.ValidateChunkSize(c.ChunkSize); err != nil {
		return fmt.Errorf("sdk: %w", err)
	}
	return nil
}

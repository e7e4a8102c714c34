package store

import (
	"fmt"

	"github.com/openmined/dirsync/internal/chunker"
)

const (
	DefaultRoot          = "target"
	DefaultMaxObjectSize = 16 << 30 // 16 GiB
)

type Config struct {
	Root      string `mapstructure:"root"`
	ChunkSize int    `mapstructure:"chunk_size"`
	// MaxObjectSize caps the length of any object, 0 means DefaultMaxObjectSize
	MaxObjectSize int64 `mapstructure:"max_object_size"`
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("store root required")
	}
	if err := chunker.ValidateChunkSize(c.ChunkSize); err != nil {
		return fmt.Errorf("store chunk_size: %w", err)
	}
	if c.MaxObjectSize < 0 {
		return fmt.Errorf("store max_object_size must not be negative")
	}
	return nil
}

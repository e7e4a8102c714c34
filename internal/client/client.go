package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmined/dirsync/internal/client/sync"
	"github.com/openmined/dirsync/internal/client/workspace"
	"github.com/openmined/dirsync/internal/syncsdk"
	"github.com/openmined/dirsync/internal/version"
)

type Client struct {
	config    *Config
	workspace *workspace.Workspace
	sdk       *syncsdk.Client
}

func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ws, err := workspace.NewWorkspace(config.WatchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	sdk, err := syncsdk.New(&syncsdk.Config{
		BaseURL:    config.ServerURL,
		Timeout:    config.RequestTimeout,
		RetryCount: config.RetryCount,
		ChunkSize:  config.ChunkSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sdk: %w", err)
	}

	return &Client{
		config:    config,
		workspace: ws,
		sdk:       sdk,
	}, nil
}

// Start locks the watch dir and syncs it until ctx is done
func (c *Client) Start(ctx context.Context) error {
	slog.Info("dirsync client start", "version", version.Version, "dir", c.workspace.Root, "server", c.config.ServerURL)
	defer slog.Info("dirsync client stop")

	if err := c.workspace.Setup(); err != nil {
		return fmt.Errorf("failed to setup workspace: %w", err)
	}
	defer func() {
		if err := c.workspace.Unlock(); err != nil {
			slog.Error("workspace unlock", "error", err)
		}
	}()

	ignore := sync.NewSyncIgnoreList(c.workspace.Root)
	ignore.Load()

	engine, err := sync.NewSyncEngine(&sync.SyncEngineConfig{
		WatchDir:    c.workspace.Root,
		ChunkSize:   c.config.ChunkSize,
		ScanOnStart: c.config.ScanOnStart,
	}, c.sdk, ignore, sync.NewFileWatcher(c.workspace.Root))
	if err != nil {
		return err
	}

	return engine.Start(ctx)
}

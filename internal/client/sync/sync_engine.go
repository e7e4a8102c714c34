package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/syncsdk"
)

type SyncEngineConfig struct {
	WatchDir    string
	ChunkSize   int
	ScanOnStart bool
}

// SyncEngine pushes local changes of the watched directory to the remote,
// one event at a time in delivery order
type SyncEngine struct {
	config  *SyncEngineConfig
	remote  Remote
	ignore  *SyncIgnoreList
	watcher *FileWatcher
}

func NewSyncEngine(config *SyncEngineConfig, remote Remote, ignore *SyncIgnoreList, watcher *FileWatcher) (*SyncEngine, error) {
	if err := chunker.ValidateChunkSize(config.ChunkSize); err != nil {
		return nil, fmt.Errorf("sync engine: %w", err)
	}
	if config.WatchDir == "" {
		return nil, fmt.Errorf("sync engine: watch dir required")
	}

	return &SyncEngine{
		config:  config,
		remote:  remote,
		ignore:  ignore,
		watcher: watcher,
	}, nil
}

// Start runs the optional start-up scan, then syncs watcher events until
// ctx is done or the watcher stops
func (se *SyncEngine) Start(ctx context.Context) error {
	slog.Info("sync start", "dir", se.config.WatchDir, "chunkSize", se.config.ChunkSize)
	defer slog.Info("sync stop")

	se.watcher.FilterPaths(se.ignore.ShouldIgnore)
	if err := se.watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer se.watcher.Stop()

	// scan after the watcher is up so changes made during the scan are not missed
	if se.config.ScanOnStart {
		if err := se.Scan(ctx); err != nil {
			return err
		}
	}

	return se.Run(ctx, se.watcher.Events())
}

// Run handles events until ctx is done or events is closed. Failures are
// logged and do not stop the loop.
func (se *SyncEngine) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := se.Handle(ctx, event); err != nil {
				slog.Error("sync event", "event", fmt.Sprintf("%T", event), "error", err)
			}
		}
	}
}

// Handle dispatches a single event
func (se *SyncEngine) Handle(ctx context.Context, event Event) error {
	switch e := event.(type) {
	case Created:
		_, err := se.SyncFile(ctx, e.Path)
		return err
	case Modified:
		_, err := se.SyncFile(ctx, e.Path)
		return err
	case Deleted:
		return se.DeleteFile(ctx, e.Path)
	case Other:
		slog.Debug("sync skip event", "op", e.Op, "path", e.Path)
		return nil
	default:
		return fmt.Errorf("unknown event %T", event)
	}
}

// SyncFile brings the remote copy of path in line with the local file
func (se *SyncEngine) SyncFile(ctx context.Context, path string) (*Result, error) {
	log := slog.With("sync", uuid.NewString(), "name", RemoteName(path))

	decision, err := Decide(ctx, se.remote, path, se.config.ChunkSize)
	if err != nil {
		return nil, err
	}

	if decision.Action == ActionPatch {
		log.Debug("sync decision", "action", decision.Action, "changed", len(decision.Changes.Indices), "length", decision.Changes.Length)
	} else {
		log.Debug("sync decision", "action", decision.Action)
	}

	result, err := Apply(ctx, se.remote, path, decision, se.config.ChunkSize)
	if err != nil {
		var patchErr *PatchError
		if errors.As(err, &patchErr) {
			log.Warn("remote may be partially patched", "applied", len(patchErr.Applied), "failed", patchErr.Failed)
		}
		return result, err
	}

	if result.Action != ActionNone {
		log.Info("sync done",
			"action", result.Action,
			"chunks", result.ChunksSent,
			"sent", humanize.IBytes(uint64(result.BytesSent)),
			"size", humanize.IBytes(uint64(result.Length)),
		)
	}
	return result, nil
}

// DeleteFile removes the remote copy of path. A copy that is already gone
// counts as deleted.
func (se *SyncEngine) DeleteFile(ctx context.Context, path string) error {
	name := RemoteName(path)

	err := se.remote.Delete(ctx, name)
	if errors.Is(err, syncsdk.ErrNotFound) {
		slog.Debug("sync delete", "name", name, "reason", "not found")
		return nil
	} else if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	slog.Info("sync deleted", "name", name)
	return nil
}

// Scan syncs every regular, non ignored file directly inside the watch dir
func (se *SyncEngine) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(se.config.WatchDir)
	if err != nil {
		return fmt.Errorf("scan %q: %w", se.config.WatchDir, err)
	}

	synced, failed := 0, 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(se.config.WatchDir, entry.Name())
		if se.ignore != nil && se.ignore.ShouldIgnore(path) {
			continue
		}

		if _, err := se.SyncFile(ctx, path); err != nil {
			slog.Error("sync scan", "path", path, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.Info("sync scan done", "files", synced, "failed", failed)
	return nil
}

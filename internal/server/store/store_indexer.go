package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ObjectIndexer rebuilds the object index from the files under the store root
type ObjectIndexer struct {
	store *ObjectStore
}

func NewObjectIndexer(store *ObjectStore) *ObjectIndexer {
	return &ObjectIndexer{store: store}
}

// Rebuild scans the root and replaces the index. Leftover staging files from
// interrupted uploads are removed along the way.
func (i *ObjectIndexer) Rebuild(ctx context.Context) error {
	start := time.Now()

	entries, err := os.ReadDir(i.store.root)
	if err != nil {
		return fmt.Errorf("read store root: %w", err)
	}

	objects := make([]*ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		path := filepath.Join(i.store.root, name)

		if isStagingName(name) {
			slog.Warn("indexer removing stale staging file", "path", path)
			os.Remove(path)
			continue
		}

		if !entry.Type().IsRegular() || ValidateName(name) != nil {
			continue
		}

		info, err := statObject(path, name)
		if err != nil {
			slog.Warn("indexer skip", "name", name, "error", err)
			continue
		}
		objects = append(objects, info)
	}

	if err := i.store.index.Reset(objects); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}

	slog.Info("indexer rebuild", "objects", len(objects), "took", time.Since(start))
	return nil
}

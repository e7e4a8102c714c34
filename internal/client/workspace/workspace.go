package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/openmined/dirsync/internal/utils"
)

const lockFile = ".dirsync.lock"

var (
	ErrWorkspaceLocked = errors.New("watch dir locked by another process")
)

// Workspace is the watched source directory. Only one client at a time may
// drive it.
type Workspace struct {
	Root string

	flock *flock.Flock
}

func NewWorkspace(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	return &Workspace{
		Root:  root,
		flock: flock.New(filepath.Join(root, lockFile)),
	}, nil
}

// LockPath is the lock file inside the root
func (w *Workspace) LockPath() string {
	return w.flock.Path()
}

func (w *Workspace) Lock() error {
	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

func (w *Workspace) Unlock() error {
	// if this process hasn't locked the workspace, then don't delete the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock workspace: %w", err)
	}

	return os.Remove(w.flock.Path())
}

// Setup creates the root when missing and takes the lock
func (w *Workspace) Setup() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.Root, err)
	}

	if err := w.Lock(); err != nil {
		return err
	}

	slog.Info("workspace", "root", w.Root)
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/utils"
)

// ObjectStore owns the bytes of every named object under a single root directory.
//
// Each call is atomic with respect to other calls on the same name, but no
// lock spans a client's exists/checksum/chunk/truncate sequence. Two clients
// patching the same object can interleave and the later writes win.
type ObjectStore struct {
	root          string
	chunkSize     int
	maxObjectSize int64
	locks         *objectLocks
	index         *ObjectIndex
}

func NewObjectStore(cfg *Config, index *ObjectIndex) (*ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := utils.ResolvePath(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}

	maxObjectSize := cfg.MaxObjectSize
	if maxObjectSize == 0 {
		maxObjectSize = DefaultMaxObjectSize
	}

	return &ObjectStore{
		root:          root,
		chunkSize:     cfg.ChunkSize,
		maxObjectSize: maxObjectSize,
		locks:         newObjectLocks(),
		index:         index,
	}, nil
}

// Init creates the root directory when missing
func (s *ObjectStore) Init() error {
	if err := utils.EnsureDir(s.root); err != nil {
		return fmt.Errorf("create store root %q: %w", s.root, err)
	}
	return nil
}

func (s *ObjectStore) Root() string {
	return s.root
}

func (s *ObjectStore) ChunkSize() int {
	return s.chunkSize
}

func (s *ObjectStore) MaxObjectSize() int64 {
	return s.maxObjectSize
}

func (s *ObjectStore) Index() *ObjectIndex {
	return s.index
}

func (s *ObjectStore) objectPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// Exists reports whether an object with name is stored
func (s *ObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := s.locks.RLock(name)
	defer unlock()

	return utils.FileExists(path), nil
}

// Stat returns the current size and modification time of an object
func (s *ObjectStore) Stat(ctx context.Context, name string) (*ObjectInfo, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(name)
	defer unlock()

	return statObject(path, name)
}

// Checksum recomputes the digest set of an object from its current bytes
func (s *ObjectStore) Checksum(ctx context.Context, name string) (*chunker.DigestSet, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(name)
	defer unlock()

	file, err := openObject(path, os.O_RDONLY, name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	digest, err := chunker.Digest(file, s.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("checksum %q: %w", name, err)
	}
	return digest, nil
}

// WriteWhole creates or replaces an object with the contents of r. The data
// is staged next to the target and renamed into place, so concurrent readers
// see either the previous or the new content.
func (s *ObjectStore) WriteWhole(ctx context.Context, name string, r io.Reader) (*ObjectInfo, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	staging, err := os.CreateTemp(s.root, stagingPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	stagingPath := staging.Name()
	committed := false
	defer func() {
		if !committed {
			staging.Close()
			os.Remove(stagingPath)
		}
	}()

	buf := make([]byte, s.chunkSize)
	limited := &io.LimitedReader{R: r, N: s.maxObjectSize}
	written, err := io.CopyBuffer(staging, readerOnly{limited}, buf)
	if err != nil {
		return nil, fmt.Errorf("write %q: %w", name, err)
	}
	if limited.N == 0 {
		var extra [1]byte
		if n, _ := io.ReadFull(r, extra[:]); n > 0 {
			return nil, fmt.Errorf("%w: %q over %d bytes", ErrObjectTooLarge, name, s.maxObjectSize)
		}
	}
	if err := staging.Chmod(0o644); err != nil {
		return nil, fmt.Errorf("chmod %q: %w", name, err)
	}
	if err := staging.Sync(); err != nil {
		return nil, fmt.Errorf("sync %q: %w", name, err)
	}
	if err := staging.Close(); err != nil {
		return nil, fmt.Errorf("close %q: %w", name, err)
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if err := os.Rename(stagingPath, path); err != nil {
		return nil, fmt.Errorf("commit %q: %w", name, err)
	}
	committed = true

	info, err := statObject(path, name)
	if err != nil {
		return nil, err
	}

	slog.Debug("object write", "name", name, "size", written)
	s.afterWrite(info)
	return info, nil
}

// WriteChunk overwrites the bytes at index*chunkSize with data. The object
// must already exist; writing past the end extends it, up to the max object
// size.
func (s *ObjectStore) WriteChunk(ctx context.Context, name string, index int64, data []byte) (int, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return 0, err
	}

	if index < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if len(data) == 0 {
		return 0, ErrEmptyChunk
	}
	if len(data) > s.chunkSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, len(data), s.chunkSize)
	}
	// the max object size bounds the offset, so it cannot overflow
	if index > s.maxObjectSize/int64(s.chunkSize) || int64(len(data)) > s.maxObjectSize-index*int64(s.chunkSize) {
		return 0, fmt.Errorf("%w: chunk %d ends past %d bytes", ErrObjectTooLarge, index, s.maxObjectSize)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	file, err := openObject(path, os.O_WRONLY, name)
	if err != nil {
		return 0, err
	}

	offset := index * int64(s.chunkSize)
	n, err := file.WriteAt(data, offset)
	if err != nil {
		file.Close()
		return n, fmt.Errorf("write chunk %d of %q: %w", index, name, err)
	}
	if err := file.Close(); err != nil {
		return n, fmt.Errorf("close %q: %w", name, err)
	}

	slog.Debug("object write chunk", "name", name, "index", index, "offset", offset, "size", n)

	if info, err := statObject(path, name); err == nil {
		s.afterWrite(info)
	}
	return n, nil
}

// Truncate sets the object length to exactly length. A length beyond the
// current size zero-fills the gap, up to the max object size.
func (s *ObjectStore) Truncate(ctx context.Context, name string, length int64) error {
	path, err := s.objectPath(name)
	if err != nil {
		return err
	}
	if length < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if length > s.maxObjectSize {
		return fmt.Errorf("%w: length %d over %d", ErrObjectTooLarge, length, s.maxObjectSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if _, err := statObject(path, name); err != nil {
		return err
	}

	if err := os.Truncate(path, length); err != nil {
		return fmt.Errorf("truncate %q: %w", name, err)
	}

	if info, err := statObject(path, name); err == nil {
		s.afterWrite(info)
	}
	return nil
}

// Delete removes the object
func (s *ObjectStore) Delete(ctx context.Context, name string) error {
	path, err := s.objectPath(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	if _, err := statObject(path, name); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("delete %q: %w", name, err)
	}

	s.afterDelete(name)
	return nil
}

// Open returns a reader over the object. The object cannot be modified until
// the reader is closed.
func (s *ObjectStore) Open(ctx context.Context, name string) (*ObjectReader, error) {
	path, err := s.objectPath(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(name)

	file, err := openObject(path, os.O_RDONLY, name)
	if err != nil {
		unlock()
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		unlock()
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}

	return &ObjectReader{
		File:    file,
		Name:    name,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		unlock:  unlock,
	}, nil
}

// List returns the indexed objects
func (s *ObjectStore) List(ctx context.Context) ([]*ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.index.List()
}

func (s *ObjectStore) afterWrite(info *ObjectInfo) {
	if s.index == nil {
		return
	}
	if err := s.index.Set(info); err != nil {
		slog.Error("update index", "hook", "write", "name", info.Name, "error", err)
	}
}

func (s *ObjectStore) afterDelete(name string) {
	if s.index == nil {
		return
	}
	if err := s.index.Remove(name); err != nil {
		slog.Error("update index", "hook", "delete", "name", name, "error", err)
	}
}

// ObjectReader is a locked read handle on an object
type ObjectReader struct {
	*os.File
	Name    string
	Size    int64
	ModTime time.Time
	unlock  func()
}

func (r *ObjectReader) Close() error {
	err := r.File.Close()
	if r.unlock != nil {
		r.unlock()
		r.unlock = nil
	}
	return err
}

// readerOnly hides ReaderFrom/WriterTo so io.CopyBuffer uses the chunk-size buffer
type readerOnly struct {
	io.Reader
}

func openObject(path string, flag int, name string) (*os.File, error) {
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %q: %w", name, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}
	if !stat.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return file, nil
}

func statObject(path string, name string) (*ObjectInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat %q: %w", name, err)
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &ObjectInfo{
		Name:         name,
		Size:         stat.Size(),
		LastModified: stat.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

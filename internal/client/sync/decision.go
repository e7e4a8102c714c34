package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/syncsdk"
)

var (
	ErrChunkSizeMismatch = errors.New("sync: server chunk size differs from client chunk size")
)

// Action is what the client has to do to bring the remote copy in line
type Action int

const (
	ActionNone Action = iota
	ActionFullUpload
	ActionPatch
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionFullUpload:
		return "full_upload"
	case ActionPatch:
		return "patch"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ChangeSet lists the chunk indices to send, ascending, and the exact length
// the remote object must have once they are written
type ChangeSet struct {
	Indices []int
	Length  int64
}

type Decision struct {
	Action  Action
	Name    string
	Local   *chunker.DigestSet // nil for ActionFullUpload
	Changes *ChangeSet         // set only for ActionPatch
}

// Remote is the subset of the transfer protocol the decision needs
type Remote interface {
	Exists(ctx context.Context, name string) (bool, error)
	Checksum(ctx context.Context, name string) (*syncsdk.ChecksumResponse, error)
	Upload(ctx context.Context, name string, path string) (*syncsdk.UploadResponse, error)
	UploadChunk(ctx context.Context, name string, index int, data []byte) (int, error)
	Truncate(ctx context.Context, name string, length int64) (int64, error)
	Delete(ctx context.Context, name string) error
}

var _ Remote = (*syncsdk.Client)(nil)

// RemoteName is the object name a local file is stored under
func RemoteName(path string) string {
	return filepath.Base(path)
}

// CompareDigests returns the indices of local chunks that are missing or
// different remotely. Chunks that exist only remotely are never listed, the
// trailing truncate removes them.
func CompareDigests(local, remote *chunker.DigestSet) []int {
	changed := make([]int, 0)
	if local.Equal(remote) {
		return changed
	}

	for i, digest := range local.Chunks {
		if remote == nil || i >= len(remote.Chunks) || remote.Chunks[i] != digest {
			changed = append(changed, i)
		}
	}
	return changed
}

// Decide compares the local file with its remote copy
func Decide(ctx context.Context, remote Remote, path string, chunkSize int) (*Decision, error) {
	name := RemoteName(path)

	exists, err := remote.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("exists %q: %w", name, err)
	}
	if !exists {
		return &Decision{Action: ActionFullUpload, Name: name}, nil
	}

	local, length, err := digestLocal(path, chunkSize)
	if err != nil {
		return nil, err
	}

	remoteDigest, err := remote.Checksum(ctx, name)
	if errors.Is(err, syncsdk.ErrNotFound) {
		// deleted between the two requests
		return &Decision{Action: ActionFullUpload, Name: name}, nil
	} else if err != nil {
		return nil, fmt.Errorf("checksum %q: %w", name, err)
	}

	if remoteDigest.ChunkSize != 0 && remoteDigest.ChunkSize != chunkSize {
		return nil, fmt.Errorf("%w: server %d, client %d", ErrChunkSizeMismatch, remoteDigest.ChunkSize, chunkSize)
	}

	if local.Equal(&remoteDigest.DigestSet) {
		return &Decision{Action: ActionNone, Name: name, Local: local}, nil
	}

	return &Decision{
		Action: ActionPatch,
		Name:   name,
		Local:  local,
		Changes: &ChangeSet{
			Indices: CompareDigests(local, &remoteDigest.DigestSet),
			Length:  length,
		},
	}, nil
}

// digestLocal returns the digest set and the number of bytes it covers
func digestLocal(path string, chunkSize int) (*chunker.DigestSet, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	counter := &countingReader{r: file}
	digest, err := chunker.Digest(counter, chunkSize)
	if err != nil {
		return nil, 0, fmt.Errorf("digest %q: %w", path, err)
	}
	return digest, counter.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

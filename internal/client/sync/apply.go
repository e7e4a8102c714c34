package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openmined/dirsync/internal/chunker"
)

// Result summarizes what Apply sent
type Result struct {
	Action     Action
	Name       string
	ChunksSent int
	BytesSent  int64
	Length     int64
}

// PatchError reports a patch that stopped part way. Applied chunks are
// already written remotely, so the remote object may be partially patched.
// Failed is the chunk index that failed, or -1 when the truncate failed.
type PatchError struct {
	Name    string
	Applied []int
	Failed  int
	Err     error
}

func (e *PatchError) Error() string {
	if e.Failed < 0 {
		return fmt.Sprintf("patch %q: truncate failed after %d chunks: %v", e.Name, len(e.Applied), e.Err)
	}
	return fmt.Sprintf("patch %q: chunk %d failed after %d chunks: %v", e.Name, e.Failed, len(e.Applied), e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// Apply carries out a decision against the remote
func Apply(ctx context.Context, remote Remote, path string, decision *Decision, chunkSize int) (*Result, error) {
	switch decision.Action {
	case ActionNone:
		return &Result{Action: ActionNone, Name: decision.Name}, nil
	case ActionFullUpload:
		return applyFullUpload(ctx, remote, path, decision)
	case ActionPatch:
		return applyPatch(ctx, remote, path, decision, chunkSize)
	default:
		return nil, fmt.Errorf("apply %q: unknown action %s", decision.Name, decision.Action)
	}
}

func applyFullUpload(ctx context.Context, remote Remote, path string, decision *Decision) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	if _, err := remote.Upload(ctx, decision.Name, path); err != nil {
		return nil, fmt.Errorf("upload %q: %w", decision.Name, err)
	}

	return &Result{
		Action:    ActionFullUpload,
		Name:      decision.Name,
		BytesSent: info.Size(),
		Length:    info.Size(),
	}, nil
}

func applyPatch(ctx context.Context, remote Remote, path string, decision *Decision, chunkSize int) (*Result, error) {
	changes := decision.Changes
	if changes == nil {
		return nil, fmt.Errorf("apply %q: patch without change set", decision.Name)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	result := &Result{Action: ActionPatch, Name: decision.Name, Length: changes.Length}
	applied := make([]int, 0, len(changes.Indices))

	for _, index := range changes.Indices {
		data, err := readChunk(file, index, changes.Length, chunkSize)
		if err == nil {
			_, err = remote.UploadChunk(ctx, decision.Name, index, data)
		}
		if err != nil {
			return result, &PatchError{Name: decision.Name, Applied: applied, Failed: index, Err: err}
		}

		applied = append(applied, index)
		result.ChunksSent++
		result.BytesSent += int64(len(data))
	}

	if _, err := remote.Truncate(ctx, decision.Name, changes.Length); err != nil {
		return result, &PatchError{Name: decision.Name, Applied: applied, Failed: -1, Err: err}
	}
	return result, nil
}

// readChunk reads exactly the window of index. A file that shrank since the
// digest was taken fails with io.ErrUnexpectedEOF.
func readChunk(r io.ReaderAt, index int, length int64, chunkSize int) ([]byte, error) {
	offset, size := chunker.ChunkBounds(index, length, chunkSize)
	if size == 0 {
		return nil, fmt.Errorf("chunk %d is outside length %d", index, length)
	}

	buf := make([]byte, size)
	n, err := r.ReadAt(buf, offset)
	if int64(n) == size {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read chunk %d: %w", index, err)
}

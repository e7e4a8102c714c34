package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	DefaultChunkSize = 8192
	MinChunkSize     = 1024
	MaxChunkSize     = 16 << 20 // 16 MiB
)

var (
	ErrInvalidChunkSize = errors.New("chunker: invalid chunk size")
)

// DigestSet is the whole-content digest of a byte stream plus one digest per chunk.
// Chunks[i] covers bytes [i*chunkSize, min(length, (i+1)*chunkSize)).
type DigestSet struct {
	Checksum string   `json:"checksum"`
	Chunks   []string `json:"chunks"`
}

// Len returns the number of chunks
func (d *DigestSet) Len() int {
	return len(d.Chunks)
}

// Equal reports whether both sets describe byte-identical content
func (d *DigestSet) Equal(other *DigestSet) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Checksum == other.Checksum
}

func ValidateChunkSize(chunkSize int) error {
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidChunkSize, chunkSize, MinChunkSize, MaxChunkSize)
	}
	return nil
}

// Digest reads r in windows of chunkSize bytes and returns the digest set.
// Memory use is bounded by one chunk regardless of the stream length.
func Digest(r io.Reader, chunkSize int) (*DigestSet, error) {
	if err := ValidateChunkSize(chunkSize); err != nil {
		return nil, err
	}

	whole := sha256.New()
	chunks := make([]string, 0)
	buf := make([]byte, chunkSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			whole.Write(buf[:n])
			sum := sha256.Sum256(buf[:n])
			chunks = append(chunks, hex.EncodeToString(sum[:]))
		}

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("chunker: read: %w", err)
		}
	}

	return &DigestSet{
		Checksum: hex.EncodeToString(whole.Sum(nil)),
		Chunks:   chunks,
	}, nil
}

// DigestFile computes the digest set of the file at path
func DigestFile(path string, chunkSize int) (*DigestSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Digest(file, chunkSize)
}

// ChunkCount returns ceil(length/chunkSize), 0 for an empty object
func ChunkCount(length int64, chunkSize int) int {
	if length <= 0 || chunkSize <= 0 {
		return 0
	}
	size := int64(chunkSize)
	return int((length + size - 1) / size)
}

// ChunkBounds returns the byte window covered by the chunk at index.
// size is 0 when the index is past the end of the object.
func ChunkBounds(index int, length int64, chunkSize int) (offset int64, size int64) {
	offset = int64(index) * int64(chunkSize)
	if index < 0 || offset >= length {
		return offset, 0
	}
	return offset, min(int64(chunkSize), length-offset)
}

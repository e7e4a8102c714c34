package sync

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/syncsdk"
	"github.com/stretchr/testify/require"
)

const testChunkSize = chunker.DefaultChunkSize

func testData(size int) []byte {
	rng := rand.New(rand.NewSource(31337))
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(30 + rng.Intn(221))
	}
	return data
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func digestOf(t *testing.T, data []byte) *syncsdk.ChecksumResponse {
	t.Helper()
	path := writeFile(t, t.TempDir(), "digest.bin", data)
	ds, err := chunker.DigestFile(path, testChunkSize)
	require.NoError(t, err)
	return &syncsdk.ChecksumResponse{DigestSet: *ds, ChunkSize: testChunkSize}
}

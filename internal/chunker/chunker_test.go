package chunker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData(size int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(30 + rng.Intn(221))
	}
	return data
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestDigest_Deterministic(t *testing.T) {
	data := testData(70000, 31337)

	a, err := Digest(bytes.NewReader(data), DefaultChunkSize)
	require.NoError(t, err)
	b, err := Digest(bytes.NewReader(data), DefaultChunkSize)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a.Equal(b))
}

func TestDigest_ChunkLayout(t *testing.T) {
	data := testData(70000, 31337)

	ds, err := Digest(bytes.NewReader(data), DefaultChunkSize)
	require.NoError(t, err)

	require.Len(t, ds.Chunks, 9)
	assert.Equal(t, sha256Hex(data), ds.Checksum)

	for i := 0; i < 9; i++ {
		end := min(len(data), (i+1)*DefaultChunkSize)
		assert.Equal(t, sha256Hex(data[i*DefaultChunkSize:end]), ds.Chunks[i], "chunk %d", i)
	}

	_, last := ChunkBounds(8, int64(len(data)), DefaultChunkSize)
	assert.EqualValues(t, 1696, last)
}

func TestDigest_Empty(t *testing.T) {
	ds, err := Digest(bytes.NewReader(nil), DefaultChunkSize)
	require.NoError(t, err)

	assert.NotNil(t, ds.Chunks)
	assert.Empty(t, ds.Chunks)
	assert.Equal(t, sha256Hex(nil), ds.Checksum)
}

func TestDigest_ShortReadsDoNotSplitChunks(t *testing.T) {
	data := testData(20000, 7)

	expected, err := Digest(bytes.NewReader(data), MinChunkSize)
	require.NoError(t, err)

	// OneByteReader returns a single byte per Read call
	got, err := Digest(iotest.OneByteReader(bytes.NewReader(data)), MinChunkSize)
	require.NoError(t, err)

	assert.Equal(t, expected, got)
}

func TestDigest_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Digest(iotest.ErrReader(boom), DefaultChunkSize)
	assert.ErrorIs(t, err, boom)
}

func TestDigest_InvalidChunkSize(t *testing.T) {
	_, err := Digest(bytes.NewReader([]byte("x")), 512)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = Digest(bytes.NewReader([]byte("x")), MaxChunkSize+1)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)
}

func TestDigestFile(t *testing.T) {
	data := testData(10000, 1)
	path := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	ds, err := DigestFile(path, MinChunkSize)
	require.NoError(t, err)
	assert.Len(t, ds.Chunks, 10)
	assert.Equal(t, sha256Hex(data), ds.Checksum)

	_, err = DigestFile(filepath.Join(t.TempDir(), "missing"), MinChunkSize)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestChunkCount(t *testing.T) {
	tests := []struct {
		length int64
		size   int
		want   int
	}{
		{0, 8192, 0},
		{1, 8192, 1},
		{8191, 8192, 1},
		{8192, 8192, 1},
		{8193, 8192, 2},
		{70000, 8192, 9},
		{16384, 8192, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ChunkCount(tt.length, tt.size), "length=%d size=%d", tt.length, tt.size)
	}
}

func TestChunkBounds(t *testing.T) {
	off, size := ChunkBounds(0, 70000, 8192)
	assert.EqualValues(t, 0, off)
	assert.EqualValues(t, 8192, size)

	off, size = ChunkBounds(8, 70000, 8192)
	assert.EqualValues(t, 65536, off)
	assert.EqualValues(t, 70000-8*8192, size)

	_, size = ChunkBounds(9, 70000, 8192)
	assert.EqualValues(t, 0, size)

	_, size = ChunkBounds(-1, 70000, 8192)
	assert.EqualValues(t, 0, size)
}

func TestDigestSet_Equal(t *testing.T) {
	a := &DigestSet{Checksum: "aa"}
	assert.True(t, a.Equal(&DigestSet{Checksum: "aa"}))
	assert.False(t, a.Equal(&DigestSet{Checksum: "bb"}))
	assert.False(t, a.Equal(nil))

	var n *DigestSet
	assert.True(t, n.Equal(nil))
}

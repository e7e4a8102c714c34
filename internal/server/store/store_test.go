package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/openmined/dirsync/internal/chunker"
	"github.com/openmined/dirsync/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChunkSize = chunker.DefaultChunkSize

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	return newTestStoreWithConfig(t, &Config{Root: t.TempDir(), ChunkSize: testChunkSize})
}

func newTestStoreWithConfig(t *testing.T, cfg *Config) *ObjectStore {
	t.Helper()

	database, err := db.NewSqliteDB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	index, err := NewObjectIndex(database)
	require.NoError(t, err)

	s, err := NewObjectStore(cfg, index)
	require.NoError(t, err)
	require.NoError(t, s.Init())
	return s
}

func testData(size int) []byte {
	rng := rand.New(rand.NewSource(31337))
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

func readObject(t *testing.T, s *ObjectStore, name string) []byte {
	t.Helper()
	r, err := s.Open(context.Background(), name)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestObjectStore_WriteWholeRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := testData(70000)

	info, err := s.WriteWhole(ctx, "testfile_0", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "testfile_0", info.Name)
	assert.EqualValues(t, len(data), info.Size)

	exists, err := s.Exists(ctx, "testfile_0")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, data, readObject(t, s, "testfile_0"))

	// no staging files left behind
	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestObjectStore_WriteWholeReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(testData(20000)))
	require.NoError(t, err)
	_, err = s.WriteWhole(ctx, "file", bytes.NewReader([]byte("short")))
	require.NoError(t, err)

	assert.Equal(t, []byte("short"), readObject(t, s, "file"))
}

func TestObjectStore_Checksum(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := testData(70000)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(data))
	require.NoError(t, err)

	ds, err := s.Checksum(ctx, "file")
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(data), ds.Checksum)
	assert.Len(t, ds.Chunks, 9)
	assert.Equal(t, sha256Hex(data[8*testChunkSize:]), ds.Chunks[8])
}

func TestObjectStore_EmptyObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "empty", bytes.NewReader(nil))
	require.NoError(t, err)

	ds, err := s.Checksum(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, ds.Chunks)
	assert.Equal(t, sha256Hex(nil), ds.Checksum)
}

func TestObjectStore_WriteChunk_ZeroFirstChunk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := testData(70000)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(data))
	require.NoError(t, err)

	zeros := make([]byte, testChunkSize)
	n, err := s.WriteChunk(ctx, "file", 0, zeros)
	require.NoError(t, err)
	assert.Equal(t, testChunkSize, n)

	expected := append(append([]byte{}, zeros...), data[testChunkSize:]...)
	ds, err := s.Checksum(ctx, "file")
	require.NoError(t, err)
	assert.Equal(t, sha256Hex(expected), ds.Checksum)
	assert.Equal(t, expected, readObject(t, s, "file"))
}

func TestObjectStore_WriteChunk_ExtendsPastEnd(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(testData(100)))
	require.NoError(t, err)

	_, err = s.WriteChunk(ctx, "file", 2, []byte("tail"))
	require.NoError(t, err)

	info, err := s.Stat(ctx, "file")
	require.NoError(t, err)
	assert.EqualValues(t, 2*testChunkSize+4, info.Size)

	got := readObject(t, s, "file")
	assert.Equal(t, make([]byte, 2*testChunkSize-100), got[100:2*testChunkSize])
	assert.Equal(t, []byte("tail"), got[2*testChunkSize:])
}

func TestObjectStore_WriteChunk_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteChunk(ctx, "missing", 0, []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.WriteWhole(ctx, "file", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	_, err = s.WriteChunk(ctx, "file", -1, []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = s.WriteChunk(ctx, "file", 1<<62, []byte("x"))
	assert.ErrorIs(t, err, ErrObjectTooLarge)

	_, err = s.WriteChunk(ctx, "file", 0, nil)
	assert.ErrorIs(t, err, ErrEmptyChunk)

	_, err = s.WriteChunk(ctx, "file", 0, make([]byte, testChunkSize+1))
	assert.ErrorIs(t, err, ErrChunkTooLarge)
}

func TestObjectStore_Truncate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := testData(70000)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(data))
	require.NoError(t, err)

	t.Run("shrink", func(t *testing.T) {
		require.NoError(t, s.Truncate(ctx, "file", 60000))
		assert.Equal(t, data[:60000], readObject(t, s, "file"))
	})

	t.Run("same length is a no-op", func(t *testing.T) {
		require.NoError(t, s.Truncate(ctx, "file", 60000))
		assert.Equal(t, data[:60000], readObject(t, s, "file"))
	})

	t.Run("extend zero-fills", func(t *testing.T) {
		require.NoError(t, s.Truncate(ctx, "file", 60010))
		got := readObject(t, s, "file")
		assert.Len(t, got, 60010)
		assert.Equal(t, make([]byte, 10), got[60000:])
	})

	t.Run("to zero", func(t *testing.T) {
		require.NoError(t, s.Truncate(ctx, "file", 0))
		ds, err := s.Checksum(ctx, "file")
		require.NoError(t, err)
		assert.Empty(t, ds.Chunks)
	})

	t.Run("negative", func(t *testing.T) {
		assert.ErrorIs(t, s.Truncate(ctx, "file", -1), ErrInvalidLength)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, s.Truncate(ctx, "missing", 0), ErrNotFound)
	})
}

func TestObjectStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader([]byte("content")))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "file"))

	exists, err := s.Exists(ctx, "file")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.Delete(ctx, "file"), ErrNotFound)
}

func TestObjectStore_MissingObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	exists, err := s.Exists(ctx, "bazinga")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Checksum(ctx, "bazinga")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open(ctx, "bazinga")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Stat(ctx, "bazinga")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectStore_DirectoryIsNotAnObject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "subdir"), 0o755))

	exists, err := s.Exists(ctx, "subdir")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Checksum(ctx, "subdir")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	names := []string{"", ".", "..", "../escape", "a/b", `a\b`, "/etc/passwd", "nul\x00byte", stagingPrefix + "x"}
	for _, name := range names {
		_, err := s.WriteWhole(ctx, name, bytes.NewReader([]byte("x")))
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)

		_, err = s.Checksum(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)

		assert.ErrorIs(t, s.Delete(ctx, name), ErrInvalidName, "name %q", name)
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(s.Root()), "escape"))
	assert.True(t, os.IsNotExist(err))
}

func TestObjectStore_CanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Checksum(ctx, "file")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObjectStore_IndexFollowsMutations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "a", bytes.NewReader(testData(100)))
	require.NoError(t, err)
	_, err = s.WriteWhole(ctx, "b", bytes.NewReader(testData(200)))
	require.NoError(t, err)

	_, err = s.WriteChunk(ctx, "a", 1, []byte("more"))
	require.NoError(t, err)

	info, ok := s.Index().Get("a")
	require.True(t, ok)
	assert.EqualValues(t, testChunkSize+4, info.Size)

	require.NoError(t, s.Truncate(ctx, "b", 10))
	info, ok = s.Index().Get("b")
	require.True(t, ok)
	assert.EqualValues(t, 10, info.Size)

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok = s.Index().Get("a")
	assert.False(t, ok)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)
}

func TestObjectIndexer_Rebuild(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "external"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), stagingPrefix+"123"), []byte("partial"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "dir"), 0o755))

	require.NoError(t, NewObjectIndexer(s).Rebuild(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "external", list[0].Name)
	assert.EqualValues(t, 5, list[0].Size)

	_, err = os.Stat(filepath.Join(s.Root(), stagingPrefix+"123"))
	assert.True(t, os.IsNotExist(err))
}

func TestObjectStore_ConcurrentChunkWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(make([]byte, 16*testChunkSize)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.WriteChunk(ctx, "file", int64(i), bytes.Repeat([]byte{byte(i + 1)}, testChunkSize))
			assert.NoError(t, err)
			_, err = s.Checksum(ctx, "file")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got := readObject(t, s, "file")
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(i+1), got[i*testChunkSize], "chunk %d", i)
	}
	assert.Zero(t, s.locks.size())
}

// Two clients patch the same object from the same baseline. Nothing ties a
// chunk write to the digest it was computed against, so the second writer
// silently overwrites the first. This is the lost-update race of the
// protocol; the test pins the behaviour so a future guard is a visible change.
func TestObjectStore_NoPatchSequenceGuard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	data := testData(3 * testChunkSize)

	_, err := s.WriteWhole(ctx, "shared", bytes.NewReader(data))
	require.NoError(t, err)

	baseline, err := s.Checksum(ctx, "shared")
	require.NoError(t, err)

	fromA := bytes.Repeat([]byte{'A'}, testChunkSize)
	fromB := bytes.Repeat([]byte{'B'}, testChunkSize)

	_, err = s.WriteChunk(ctx, "shared", 1, fromA)
	require.NoError(t, err)
	// B computed its change set against baseline, before A's write
	_, err = s.WriteChunk(ctx, "shared", 1, fromB)
	require.NoError(t, err)

	current, err := s.Checksum(ctx, "shared")
	require.NoError(t, err)
	assert.NotEqual(t, baseline.Checksum, current.Checksum)
	assert.Equal(t, sha256Hex(fromB), current.Chunks[1])
}

func TestObjectStore_MaxObjectSize(t *testing.T) {
	ctx := context.Background()
	limit := int64(3 * testChunkSize)
	s := newTestStoreWithConfig(t, &Config{Root: t.TempDir(), ChunkSize: testChunkSize, MaxObjectSize: limit})
	assert.Equal(t, limit, s.MaxObjectSize())

	data := testData(int(limit))
	_, err := s.WriteWhole(ctx, "file", bytes.NewReader(data))
	require.NoError(t, err)

	t.Run("whole upload over the limit keeps the old content", func(t *testing.T) {
		_, err := s.WriteWhole(ctx, "file", bytes.NewReader(testData(int(limit)+1)))
		assert.ErrorIs(t, err, ErrObjectTooLarge)
		assert.Equal(t, data, readObject(t, s, "file"))

		entries, err := os.ReadDir(s.Root())
		require.NoError(t, err)
		assert.Len(t, entries, 1, "staging file left behind")
	})

	t.Run("last chunk inside the limit", func(t *testing.T) {
		_, err := s.WriteChunk(ctx, "file", 2, make([]byte, testChunkSize))
		assert.NoError(t, err)
	})

	t.Run("chunk past the limit", func(t *testing.T) {
		_, err := s.WriteChunk(ctx, "file", 3, []byte("x"))
		assert.ErrorIs(t, err, ErrObjectTooLarge)
	})

	t.Run("truncate up to the limit", func(t *testing.T) {
		assert.NoError(t, s.Truncate(ctx, "file", limit))
		assert.ErrorIs(t, s.Truncate(ctx, "file", limit+1), ErrObjectTooLarge)
	})

	info, err := s.Stat(ctx, "file")
	require.NoError(t, err)
	assert.Equal(t, limit, info.Size)
}

func TestObjectStore_DefaultMaxObjectSize(t *testing.T) {
	s := newTestStore(t)
	assert.EqualValues(t, DefaultMaxObjectSize, s.MaxObjectSize())

	cfg := &Config{Root: t.TempDir(), ChunkSize: testChunkSize, MaxObjectSize: -1}
	assert.Error(t, cfg.Validate())
}

package index

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func buildStore(t *testing.T, n, dim int) *Store {
	t.Helper()
	r := rand.New(rand.NewPCG(uint64(n), uint64(dim)))
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = randomUnit(r, dim)
	}
	s := New("text-embedding-3-small")
	_, err := s.Append(vectors, records(n))
	require.NoError(t, err)
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := buildStore(t, 12, 8)

	require.NoError(t, Save(root, s, "run-1"))

	loaded, id, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
	assert.Equal(t, s.Len(), loaded.Len())
	assert.Equal(t, s.Dimension(), loaded.Dimension())
	assert.Equal(t, s.Model(), loaded.Model())

	for i := 0; i < s.Len(); i++ {
		want, _ := s.Record(i)
		got, _ := loaded.Record(i)
		assert.Equal(t, want, got)

		wv, _ := s.Vector(i)
		gv, _ := loaded.Vector(i)
		assert.Equal(t, wv, gv)
	}

	query, _ := s.Vector(4)
	before, err := s.Search(query, 5)
	require.NoError(t, err)
	after, err := loaded.Search(query, 5)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSave_RecordsWithSpecialCharacters(t *testing.T) {
	root := t.TempDir()
	s := New("m")
	_, err := s.Append([][]float32{unit(1, 0)}, []domain.MetadataRecord{
		{SourcePath: "notes/<draft> & final.md", ChunkIndex: 0, Text: "line one\nline two \"quoted\" 日本語"},
	})
	require.NoError(t, err)
	require.NoError(t, Save(root, s, "run-1"))

	loaded, _, err := Load(root)
	require.NoError(t, err)
	rec, _ := loaded.Record(0)
	assert.Equal(t, "line one\nline two \"quoted\" 日本語", rec.Text)
	assert.Equal(t, "notes/<draft> & final.md", rec.SourcePath)
}

func TestExists(t *testing.T) {
	root := t.TempDir()

	ok, err := Exists(root)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Save(root, buildStore(t, 3, 4), "run-1"))
	ok, err = Exists(root)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.Remove(filepath.Join(SnapshotPath(root, "run-1"), VectorFile)))
	ok, err = Exists(root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_NoIndex(t *testing.T) {
	_, _, err := Load(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoad_MismatchedPairIsRejected(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, buildStore(t, 10, 4), "run-1"))

	// Drop the last metadata line: 10 vectors, 9 records.
	metaPath := filepath.Join(SnapshotPath(root, "run-1"), MetadataFile)
	meta, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	lines := bytes.SplitAfter(meta, []byte("\n"))
	require.Len(t, lines, 11) // 10 lines plus the empty tail
	require.NoError(t, os.WriteFile(metaPath, bytes.Join(lines[:9], nil), 0o644))

	_, _, err = Load(root)
	assert.ErrorIs(t, err, domain.ErrIndexConsistency)
	assert.Contains(t, err.Error(), "10 vectors, 9 metadata records")
}

func TestLoad_CorruptionIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, dir string)
	}{
		{
			name: "edited record",
			corrupt: func(t *testing.T, dir string) {
				p := filepath.Join(dir, MetadataFile)
				meta, _ := os.ReadFile(p)
				require.NoError(t, os.WriteFile(p, bytes.Replace(meta, []byte("chunk text 0"), []byte("chunk text X"), 1), 0o644))
			},
		},
		{
			name: "truncated vectors",
			corrupt: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorFile)
				info, _ := os.Stat(p)
				require.NoError(t, os.Truncate(p, info.Size()-3))
			},
		},
		{
			name: "trailing bytes",
			corrupt: func(t *testing.T, dir string) {
				f, err := os.OpenFile(filepath.Join(dir, VectorFile), os.O_APPEND|os.O_WRONLY, 0)
				require.NoError(t, err)
				_, _ = f.Write([]byte{0, 0, 0, 0})
				f.Close()
			},
		},
		{
			name: "bad magic",
			corrupt: func(t *testing.T, dir string) {
				p := filepath.Join(dir, VectorFile)
				b, _ := os.ReadFile(p)
				copy(b, "NOTAVEC!")
				require.NoError(t, os.WriteFile(p, b, 0o644))
			},
		},
		{
			name: "missing metadata",
			corrupt: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, MetadataFile)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, Save(root, buildStore(t, 5, 4), "run-1"))
			tt.corrupt(t, SnapshotPath(root, "run-1"))

			s, _, err := Load(root)
			assert.ErrorIs(t, err, domain.ErrIndexConsistency)
			assert.Nil(t, s)
		})
	}
}

func TestSave_ReplacesAndPrunes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, buildStore(t, 3, 4), "run-1"))
	require.NoError(t, Save(root, buildStore(t, 6, 4), "run-2"))

	loaded, id, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "run-2", id)
	assert.Equal(t, 6, loaded.Len())

	entries, err := os.ReadDir(filepath.Join(root, SnapshotsDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-2", entries[0].Name())
}

func TestSave_PruneFailureKeepsNewSnapshotLive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, buildStore(t, 3, 4), "run-1"))

	orig := removeAll
	t.Cleanup(func() { removeAll = orig })
	removeAll = func(path string) error {
		if filepath.Base(path) == "run-1" {
			return errors.New("operation not permitted")
		}
		return orig(path)
	}

	err := Save(root, buildStore(t, 5, 4), "run-2")
	require.ErrorIs(t, err, ErrPruneFailed)

	loaded, id, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "run-2", id)
	assert.Equal(t, 5, loaded.Len())
}

func TestSave_InterruptedWriteLeavesLiveIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, buildStore(t, 4, 4), "run-1"))

	// A crash mid-write leaves a staging directory behind.
	staging := SnapshotPath(root, "run-2") + stagingSuffix
	require.NoError(t, os.MkdirAll(staging, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, VectorFile), []byte("partial"), 0o644))

	loaded, id, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
	assert.Equal(t, 4, loaded.Len())

	// The next successful save clears the leftovers.
	require.NoError(t, Save(root, buildStore(t, 2, 4), "run-3"))
	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err))
}

func TestSave_RejectsInvalidInput(t *testing.T) {
	root := t.TempDir()

	assert.ErrorIs(t, Save(root, New("m"), "run-1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, Save(root, buildStore(t, 2, 4), "../escape"), domain.ErrInvalidInput)

	require.NoError(t, Save(root, buildStore(t, 2, 4), "run-1"))
	assert.ErrorIs(t, Save(root, buildStore(t, 2, 4), "run-1"), domain.ErrInvalidInput)

	ok, err := Exists(root)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidSnapshotID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"run-1", true},
		{"0b7c5e0e-95f4-4a8e-bb0c-9a1d6b8f0e11", true},
		{"", false},
		{"../x", false},
		{"a/b", false},
		{".hidden", false},
		{"run-1.tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSnapshotID(tt.id))
		})
	}
}

package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/index"
)

// memoryStore is an ObjectStore held in a map
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }

func (s *memoryStore) PutObject(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != "" && strings.HasSuffix(key, s.failPut) {
		return errors.New("connection reset")
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (s *memoryStore) UploadFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.PutObject(ctx, key, data)
}

func (s *memoryStore) DownloadFile(ctx context.Context, key, path string) error {
	data, err := s.GetObject(ctx, key)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func saveTestIndex(t *testing.T, root, id string) *index.Store {
	t.Helper()
	store := index.New("text-embedding-3-small")
	_, err := store.Append(
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]domain.MetadataRecord{
			{SourcePath: "travel.md", ChunkIndex: 0, Text: "Hotel stays up to 150 euros."},
			{SourcePath: "meals.md", ChunkIndex: 0, Text: "Meal allowance."},
		},
	)
	require.NoError(t, err)
	require.NoError(t, index.Save(root, store, id))
	return store
}

func TestMirror_PublishAndRestore(t *testing.T) {
	ctx := context.Background()
	objects := newMemoryStore()
	mirror := NewMirror(objects, "/prod/", nil)

	source := t.TempDir()
	saveTestIndex(t, source, "run-1")
	require.NoError(t, mirror.Publish(ctx, source, "run-1"))

	assert.Equal(t, "run-1\n", string(objects.objects["prod/CURRENT"]))
	assert.Contains(t, objects.objects, "prod/snapshots/run-1/index.vec")
	assert.Contains(t, objects.objects, "prod/snapshots/run-1/meta.jsonl")

	target := t.TempDir()
	restored, err := mirror.Restore(ctx, target)
	require.NoError(t, err)
	require.True(t, restored)

	loaded, id, err := index.Load(target)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, "text-embedding-3-small", loaded.Model())

	_, err = os.Stat(index.SnapshotPath(target, "run-1") + ".tmp")
	assert.True(t, errors.Is(err, os.ErrNotExist), "staging dir should be gone")
}

func TestMirror_Restore_NothingPublished(t *testing.T) {
	restored, err := NewMirror(newMemoryStore(), "", nil).Restore(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestMirror_Restore_InvalidPointer(t *testing.T) {
	objects := newMemoryStore()
	objects.objects["CURRENT"] = []byte("../../etc\n")

	_, err := NewMirror(objects, "", nil).Restore(context.Background(), t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrIndexConsistency), "got %v", err)
}

func TestMirror_Restore_MissingFiles(t *testing.T) {
	objects := newMemoryStore()
	objects.objects["CURRENT"] = []byte("run-9\n")
	target := t.TempDir()

	_, err := NewMirror(objects, "", nil).Restore(context.Background(), target)
	require.Error(t, err)

	exists, err := index.Exists(target)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMirror_Publish_PointerWrittenLast(t *testing.T) {
	objects := newMemoryStore()
	objects.failPut = index.VectorFile
	source := t.TempDir()
	saveTestIndex(t, source, "run-2")

	err := NewMirror(objects, "", nil).Publish(context.Background(), source, "run-2")
	require.Error(t, err)
	assert.NotContains(t, objects.objects, "CURRENT")
}

func TestMirror_Publish_InvalidID(t *testing.T) {
	err := NewMirror(newMemoryStore(), "", nil).Publish(context.Background(), t.TempDir(), "../x")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
}

func TestNewS3Store_Validation(t *testing.T) {
	tests := []Config{
		{Bucket: "b", AccessKey: "a", SecretKey: "s"},
		{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"},
		{Endpoint: "localhost:9000", Bucket: "b"},
	}
	for _, cfg := range tests {
		_, err := NewS3Store(cfg)
		assert.True(t, errors.Is(err, domain.ErrConfiguration), "%+v: got %v", cfg, err)
	}

	store, err := NewS3Store(Config{Endpoint: "https://s3.example.com", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "b", store.bucket)
}

func TestS3Store_MissingObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/snapshots":
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
				`<Key>CURRENT</Key><BucketName>snapshots</BucketName></Error>`))
		}
	}))
	defer server.Close()

	store, err := NewS3Store(Config{
		Endpoint:  server.URL,
		Bucket:    "snapshots",
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	require.NoError(t, store.Ping(context.Background()))

	_, err = store.GetObject(context.Background(), "CURRENT")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

	restored, err := NewMirror(store, "", nil).Restore(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.False(t, errors.Is(classify(errors.New("dial tcp: connection refused")), domain.ErrNotFound))
}

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/index"
)

// Verify interface compliance
var _ driven.SnapshotMirror = (*Mirror)(nil)

// snapshotFiles are copied in this order; CURRENT is written last
var snapshotFiles = []string{index.MetadataFile, index.VectorFile}

// Mirror publishes snapshots under prefix using the same layout as the
// local index directory: <prefix>/snapshots/<id>/... and <prefix>/CURRENT.
type Mirror struct {
	store  ObjectStore
	prefix string
	logger *slog.Logger
}

// NewMirror creates a snapshot mirror over store
func NewMirror(store ObjectStore, prefix string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func (m *Mirror) key(parts ...string) string {
	return path.Join(append([]string{m.prefix}, parts...)...)
}

// Publish uploads snapshot runID, then points the remote CURRENT at it.
// A reader never sees CURRENT name a snapshot whose files are incomplete.
func (m *Mirror) Publish(ctx context.Context, indexRoot, runID string) error {
	if !index.ValidSnapshotID(runID) {
		return fmt.Errorf("%w: snapshot id %q", domain.ErrInvalidInput, runID)
	}
	dir := index.SnapshotPath(indexRoot, runID)

	for _, name := range snapshotFiles {
		key := m.key(index.SnapshotsDir, runID, name)
		if err := m.store.UploadFile(ctx, key, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}

	if err := m.store.PutObject(ctx, m.key(index.CurrentFile), []byte(runID+"\n")); err != nil {
		return fmt.Errorf("publish %s: %w", index.CurrentFile, err)
	}

	m.logger.Info("snapshot published", "snapshot", runID, "prefix", m.prefix)
	return nil
}

// Restore downloads the remote live snapshot into indexRoot and activates it.
// Returns false when nothing has been published.
func (m *Mirror) Restore(ctx context.Context, indexRoot string) (bool, error) {
	data, err := m.store.GetObject(ctx, m.key(index.CurrentFile))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read remote %s: %w", index.CurrentFile, err)
	}

	id := strings.TrimSpace(string(data))
	if !index.ValidSnapshotID(id) {
		return false, fmt.Errorf("%w: remote %s names invalid snapshot %q", domain.ErrIndexConsistency, index.CurrentFile, id)
	}

	final := index.SnapshotPath(indexRoot, id)
	staging := final + ".tmp"
	if err := os.RemoveAll(staging); err != nil {
		return false, err
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return false, err
	}

	for _, name := range snapshotFiles {
		key := m.key(index.SnapshotsDir, id, name)
		if err := m.store.DownloadFile(ctx, key, filepath.Join(staging, name)); err != nil {
			os.RemoveAll(staging)
			return false, fmt.Errorf("download %s: %w", key, err)
		}
	}

	if err := os.RemoveAll(final); err != nil {
		return false, err
	}
	if err := os.Rename(staging, final); err != nil {
		return false, fmt.Errorf("install snapshot %s: %w", id, err)
	}
	if err := index.Activate(indexRoot, id); err != nil {
		return false, err
	}

	m.logger.Info("snapshot restored", "snapshot", id, "index_dir", indexRoot)
	return true, nil
}

// Ping checks the object store is reachable
func (m *Mirror) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

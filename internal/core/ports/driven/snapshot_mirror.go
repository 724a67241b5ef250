package driven

import (
	"context"
)

// SnapshotMirror copies persisted index snapshots to and from remote storage
type SnapshotMirror interface {
	// Publish uploads the snapshot directory named runID under the local index root
	Publish(ctx context.Context, indexRoot, runID string) error

	// Restore downloads the latest published snapshot into the local index root.
	// Returns false if nothing has been published.
	Restore(ctx context.Context, indexRoot string) (bool, error)

	// Ping checks if the remote storage is reachable
	Ping(ctx context.Context) error
}

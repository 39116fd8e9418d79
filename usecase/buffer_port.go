package usecase

import "context"

// SnapshotBuffer holds key/value snapshots the primary store failed to
// accept so they can be replayed later. Use cases stay storage-agnostic.
type SnapshotBuffer interface {
	BufferSnapshot(ctx context.Context, key, value string) error
}

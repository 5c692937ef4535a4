package repositories

import (
	"context"
	"time"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// UndoReader defines read operations for undo snapshots.
type UndoReader interface {
	// FindSnapshotByBatchID retrieves the snapshot captured for a batch.
	FindSnapshotByBatchID(ctx context.Context, batchID string) (*domain.UndoSnapshot, error)

	// ListRecentSnapshots retrieves the most recently created not-yet-undone
	// snapshots, newest first.
	ListRecentSnapshots(ctx context.Context, limit int) ([]domain.UndoSnapshot, error)
}

// UndoWriter defines the snapshot lifecycle writes: capture once, finalize
// once, flip the undone flag once, purge old entries off the hot path.
type UndoWriter interface {
	// SaveSnapshot persists a freshly captured snapshot.
	SaveSnapshot(ctx context.Context, snapshot domain.UndoSnapshot) error

	// AttachMasterLogIDs records the master-log transaction IDs produced
	// during finalize and marks the snapshot completed and undoable.
	AttachMasterLogIDs(ctx context.Context, batchID string, masterLogIDs []string, userID string) error

	// MarkUndone flips the snapshot's is_undone flag with a timestamp.
	MarkUndone(ctx context.Context, batchID string, undoneBy string, undoneAt time.Time) error

	// PurgeOldSnapshots deletes everything beyond the keep most recent
	// non-undone snapshots. Returns the number purged.
	PurgeOldSnapshots(ctx context.Context, keep int) (int, error)
}

// UndoRepositoryFacade combines the undo-snapshot repository interfaces.
type UndoRepositoryFacade interface {
	UndoReader
	UndoWriter
}

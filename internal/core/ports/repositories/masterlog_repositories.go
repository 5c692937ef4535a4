package repositories

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// MasterLogReader defines read operations over the append-only master log.
type MasterLogReader interface {
	// FindEntriesByBatchID retrieves all master-log entries of a batch.
	FindEntriesByBatchID(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error)
}

// MasterLogWriter defines the master log's single write and its single
// (undo-only) removal.
type MasterLogWriter interface {
	// AppendEntry writes one immutable entry and returns its transaction ID.
	AppendEntry(ctx context.Context, entry domain.MasterLogEntry) (string, error)

	// RemoveByTransactionID deletes one entry. A missing ID returns
	// apperrors.ErrNotFound; undo logs and continues.
	RemoveByTransactionID(ctx context.Context, transactionID string) error
}

// MasterLogRepositoryFacade combines the master-log repository interfaces.
type MasterLogRepositoryFacade interface {
	MasterLogReader
	MasterLogWriter
}

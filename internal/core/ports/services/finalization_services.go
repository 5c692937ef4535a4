package services

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
	"github.com/kasapahq/vendorpay/internal/dto"
)

// FinalizationSvcFacade exposes the engine's two entry points plus the
// read-side views the UI collaborator needs.
type FinalizationSvcFacade interface {
	// FinalizeBatch validates, snapshots and commits a batch of staged
	// payments. Per-item failures after the validation boundary are recorded
	// in the result, not raised.
	FinalizeBatch(ctx context.Context, req dto.FinalizeBatchRequest, userID string) (*dto.FinalizationResult, error)

	// UndoBatch best-effort reverses a previously finalized batch.
	UndoBatch(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error)

	// GetRecentUndoableBatches lists the most recent undoable snapshots.
	GetRecentUndoableBatches(ctx context.Context, limit int) ([]domain.UndoSnapshot, error)

	// GetBatchLog retrieves the master-log entries written for a batch.
	GetBatchLog(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error)
}

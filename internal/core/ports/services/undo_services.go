package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// UndoSvcFacade is the undo store: pre-mutation capture, post-finalize
// completion, and the best-effort compensation executor.
type UndoSvcFacade interface {
	// Capture stores every referenced aggregate's current state before any
	// mutation of the batch begins. Must be called before the first debit.
	// batchAmounts maps each payment ID to the amount this batch will settle.
	Capture(ctx context.Context, batchID string, payments []domain.StagedPayment, batchAmounts map[string]decimal.Decimal, userID string) (*domain.UndoSnapshot, error)

	// Finalize attaches the produced master-log IDs and marks the snapshot
	// completed and undoable.
	Finalize(ctx context.Context, batchID string, masterLogIDs []string, userID string) error

	// Compensate replays the snapshot's compensating actions. Each step is
	// attempted independently; individual failures are recorded in the result
	// and do not abort the remaining steps.
	Compensate(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error)

	// ListRecent returns the most recently captured snapshots, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.UndoSnapshot, error)

	// PurgeOld trims retention to the keep most recent snapshots. Maintenance
	// only; never called on the finalize/undo hot path.
	PurgeOld(ctx context.Context, keep int) (int, error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/middleware"
)

// DefaultUndoRetention is how many non-undone snapshots the store keeps.
const DefaultUndoRetention = 5

// ReversalCategory marks compensating ledger entries written during undo.
const ReversalCategory = "REVERSAL"

// undoService is the undo store: it captures pre-mutation state for a batch,
// completes the snapshot after finalize, and executes best-effort
// compensation. Every compensation step runs independently; a failing step is
// recorded on the result and the remaining steps still run.
type undoService struct {
	undoRepo      portsrepo.UndoRepositoryFacade
	budgetRepo    portsrepo.BudgetRepositoryFacade
	bankRepo      portsrepo.BankRepositoryFacade
	masterLogRepo portsrepo.MasterLogRepositoryFacade
	paymentRepo   portsrepo.PaymentRepositoryFacade
	retention     int
}

// NewUndoService creates a new UndoService keeping the retention most recent
// non-undone snapshots.
func NewUndoService(
	undoRepo portsrepo.UndoRepositoryFacade,
	budgetRepo portsrepo.BudgetRepositoryFacade,
	bankRepo portsrepo.BankRepositoryFacade,
	masterLogRepo portsrepo.MasterLogRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	retention int,
) portssvc.UndoSvcFacade {
	if retention <= 0 {
		retention = DefaultUndoRetention
	}
	return &undoService{
		undoRepo:      undoRepo,
		budgetRepo:    budgetRepo,
		bankRepo:      bankRepo,
		masterLogRepo: masterLogRepo,
		paymentRepo:   paymentRepo,
		retention:     retention,
	}
}

var _ portssvc.UndoSvcFacade = (*undoService)(nil)

// Capture reads and stores the current state of every aggregate the batch is
// about to touch. It must run before the first debit; the invariant is that
// replaying the snapshot returns every referenced aggregate to exactly the
// values recorded here.
func (s *undoService) Capture(ctx context.Context, batchID string, payments []domain.StagedPayment, batchAmounts map[string]decimal.Decimal, userID string) (*domain.UndoSnapshot, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: cannot capture snapshot for empty batch", apperrors.ErrValidation)
	}

	budgetLineIDs := make([]string, 0, len(payments))
	seen := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		if _, ok := seen[p.BudgetLineID]; !ok {
			seen[p.BudgetLineID] = struct{}{}
			budgetLineIDs = append(budgetLineIDs, p.BudgetLineID)
		}
	}

	linesMap, err := s.budgetRepo.FindBudgetLinesByIDs(ctx, budgetLineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to capture budget lines for batch %s: %w", batchID, err)
	}

	lineSnapshots := make([]domain.BudgetLineSnapshot, 0, len(linesMap))
	for _, id := range budgetLineIDs {
		line, found := linesMap[id]
		if !found {
			// The forward pass will skip-and-record this line too; nothing to restore.
			logger.Warn("Budget line missing at capture time", slog.String("budget_line_id", id), slog.String("batch_id", batchID))
			continue
		}
		lineSnapshots = append(lineSnapshots, domain.BudgetLineSnapshot{
			BudgetLineID: line.BudgetLineID,
			Name:         line.Name,
			Balance:      line.Balance,
			Spend:        line.Spend,
		})
	}

	total := decimal.Zero
	paymentSnapshots := make([]domain.PaymentSnapshot, 0, len(payments))
	for _, p := range payments {
		amount := batchAmounts[p.PaymentID]
		total = total.Add(amount)
		paymentSnapshots = append(paymentSnapshots, domain.PaymentSnapshot{
			PaymentID:     p.PaymentID,
			PaidAmount:    p.PaidAmount,
			BatchAmount:   amount,
			TotalAmount:   p.TotalAmount,
			PaymentStatus: p.PaymentStatus,
		})
	}

	now := time.Now().UTC()
	snapshot := domain.UndoSnapshot{
		BatchID:       batchID,
		PrimaryVendor: payments[0].Vendor,
		TotalAmount:   total,
		BudgetLines:   lineSnapshots,
		Payments:      paymentSnapshots,
		Status:        domain.SnapshotCapturing,
		CanUndo:       false,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.undoRepo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save undo snapshot for batch %s: %w", batchID, err)
	}

	logger.Info("Undo snapshot captured",
		slog.String("batch_id", batchID),
		slog.Int("budget_lines", len(lineSnapshots)),
		slog.Int("payments", len(paymentSnapshots)))
	return &snapshot, nil
}

// Finalize attaches the master-log transaction IDs produced during finalize
// and marks the snapshot completed and undoable, then trims retention. A
// purge failure never fails the finalize; it only loses older undo windows.
func (s *undoService) Finalize(ctx context.Context, batchID string, masterLogIDs []string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.undoRepo.AttachMasterLogIDs(ctx, batchID, masterLogIDs, userID); err != nil {
		return fmt.Errorf("failed to finalize undo snapshot for batch %s: %w", batchID, err)
	}

	purged, err := s.undoRepo.PurgeOldSnapshots(ctx, s.retention)
	if err != nil {
		logger.Warn("Failed to purge old undo snapshots", slog.String("error", err.Error()))
		return nil
	}
	if purged > 0 {
		logger.Info("Purged old undo snapshots", slog.Int("purged", purged))
	}
	return nil
}

// Compensate replays the compensating actions for a finalized batch:
// restore budget lines, remove master-log entries, reverse bank movements,
// revert payment settlement, then flip the snapshot's undone flag.
func (s *undoService) Compensate(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	snapshot, err := s.undoRepo.FindSnapshotByBatchID(ctx, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no snapshot for batch %s", apperrors.ErrUndoUnavailable, batchID)
		}
		return nil, fmt.Errorf("failed to load undo snapshot for batch %s: %w", batchID, err)
	}
	if snapshot.IsUndone {
		return nil, fmt.Errorf("%w: batch %s is already undone", apperrors.ErrUndoUnavailable, batchID)
	}
	if !snapshot.CanUndo || snapshot.Status != domain.SnapshotCompleted {
		return nil, fmt.Errorf("%w: snapshot for batch %s never completed", apperrors.ErrUndoUnavailable, batchID)
	}

	result := &domain.CompensationResult{BatchID: batchID}

	s.restoreBudgetLines(ctx, snapshot, userID, result)
	s.removeMasterLogEntries(ctx, snapshot, result)
	s.reverseBankMovements(ctx, snapshot, userID, result)
	s.revertPayments(ctx, snapshot, userID, result)

	now := time.Now().UTC()
	if err := s.undoRepo.MarkUndone(ctx, batchID, userID, now); err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("mark undone: %v", err))
	}

	result.FullyCompensated = len(result.Failures) == 0
	logger.Info("Batch compensation finished",
		slog.String("batch_id", batchID),
		slog.Bool("fully_compensated", result.FullyCompensated),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}

// restoreBudgetLines overwrites each captured budget line with its pre-batch
// balance and spend. Unconditional overwrite, never a re-delta.
func (s *undoService) restoreBudgetLines(ctx context.Context, snapshot *domain.UndoSnapshot, userID string, result *domain.CompensationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, line := range snapshot.BudgetLines {
		if err := s.budgetRepo.RestoreBudgetLine(ctx, line.BudgetLineID, line.Balance, line.Spend, userID); err != nil {
			logger.Error("Failed to restore budget line", slog.String("budget_line_id", line.BudgetLineID), slog.String("error", err.Error()))
			result.Failures = append(result.Failures, fmt.Sprintf("restore budget line %s: %v", line.BudgetLineID, err))
			continue
		}
		result.BudgetLinesRestored++
	}
}

// removeMasterLogEntries deletes the audit entries the batch appended.
// A missing entry is logged and skipped, never fatal to the undo.
func (s *undoService) removeMasterLogEntries(ctx context.Context, snapshot *domain.UndoSnapshot, result *domain.CompensationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, txnID := range snapshot.MasterLogIDs {
		if err := s.masterLogRepo.RemoveByTransactionID(ctx, txnID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Master-log entry already gone during undo", slog.String("transaction_id", txnID))
				continue
			}
			logger.Error("Failed to remove master-log entry", slog.String("transaction_id", txnID), slog.String("error", err.Error()))
			result.Failures = append(result.Failures, fmt.Sprintf("remove master-log entry %s: %v", txnID, err))
			continue
		}
		result.MasterLogRemoved++
	}
}

// reverseBankMovements flags the batch's ledger entries as reversed and
// applies a compensating credit for each original debit (a compensating debit
// for each credit). The entry history stays append-only; the balance lands
// back on its pre-batch value because the originals' signed amounts sum to
// the batch's aggregate movement per bank.
func (s *undoService) reverseBankMovements(ctx context.Context, snapshot *domain.UndoSnapshot, userID string, result *domain.CompensationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entries, err := s.bankRepo.FindLedgerEntriesByBatchID(ctx, snapshot.BatchID)
	if err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("load bank ledger entries: %v", err))
		return
	}

	flagged, err := s.bankRepo.FlagEntriesReversed(ctx, snapshot.BatchID, userID)
	if err != nil {
		result.Failures = append(result.Failures, fmt.Sprintf("flag bank entries reversed: %v", err))
	} else {
		result.BankEntriesReversed = flagged
	}

	for _, entry := range entries {
		if entry.IsReversed || entry.Category == ReversalCategory {
			continue
		}
		direction := domain.LedgerCredit
		if entry.Direction == domain.LedgerCredit {
			direction = domain.LedgerDebit
		}
		movement := portsrepo.BankMovement{
			BankID:      entry.BankID,
			Amount:      entry.Amount.Abs(),
			Direction:   direction,
			Category:    ReversalCategory,
			Description: fmt.Sprintf("Reversal of batch %s: %s", snapshot.BatchID, entry.Description),
			BatchID:     snapshot.BatchID,
			UserID:      userID,
		}
		if _, err := s.bankRepo.ApplyMovement(ctx, movement); err != nil {
			logger.Error("Failed to apply compensating bank movement", slog.String("entry_id", entry.EntryID), slog.String("error", err.Error()))
			result.Failures = append(result.Failures, fmt.Sprintf("compensate bank entry %s: %v", entry.EntryID, err))
		}
	}
}

// revertPayments subtracts each payment's batch contribution from its current
// paid amount (clamped at zero) and recomputes the status with the same rule
// forward finalization uses.
func (s *undoService) revertPayments(ctx context.Context, snapshot *domain.UndoSnapshot, userID string, result *domain.CompensationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, ps := range snapshot.Payments {
		payment, err := s.paymentRepo.FindPaymentByID(ctx, ps.PaymentID)
		if err != nil {
			logger.Error("Failed to load payment for undo", slog.String("payment_id", ps.PaymentID), slog.String("error", err.Error()))
			result.Failures = append(result.Failures, fmt.Sprintf("load payment %s: %v", ps.PaymentID, err))
			continue
		}

		newPaid := payment.PaidAmount.Sub(ps.BatchAmount)
		if newPaid.IsNegative() {
			newPaid = decimal.Zero
		}
		status := domain.StatusForAmounts(newPaid, payment.TotalAmount)

		if err := s.paymentRepo.OverwriteSettlement(ctx, ps.PaymentID, newPaid, status, snapshot.BatchID, userID); err != nil {
			logger.Error("Failed to revert payment settlement", slog.String("payment_id", ps.PaymentID), slog.String("error", err.Error()))
			result.Failures = append(result.Failures, fmt.Sprintf("revert payment %s: %v", ps.PaymentID, err))
			continue
		}
		result.PaymentsReverted++
	}
}

// ListRecent returns the most recently captured snapshots, newest first.
func (s *undoService) ListRecent(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	if limit <= 0 {
		limit = DefaultUndoRetention
	}
	snapshots, err := s.undoRepo.ListRecentSnapshots(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list undo snapshots: %w", err)
	}
	return snapshots, nil
}

// PurgeOld trims the store to the keep most recent non-undone snapshots.
func (s *undoService) PurgeOld(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		keep = s.retention
	}
	purged, err := s.undoRepo.PurgeOldSnapshots(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to purge undo snapshots: %w", err)
	}
	return purged, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/dto"
	"github.com/kasapahq/vendorpay/internal/middleware"
	"github.com/kasapahq/vendorpay/internal/utils/taxmath"
)

// defaultCashFlowCategory labels bank deductions for payments that did not
// carry a category of their own.
const defaultCashFlowCategory = "VENDOR_PAYMENT"

// TaxConfig carries the org-wide statutory rates applied alongside the
// per-procurement-type WHT rate.
type TaxConfig struct {
	LevyRate decimal.Decimal
	VATRate  decimal.Decimal
	MomoRate decimal.Decimal
}

// finalizationService is the saga coordinator. It walks a batch through the
// fixed step order (validate, snapshot, budget debit, tax resolution, bank
// deduction, status update, audit log) with each step independently atomic.
// There is no cross-aggregate transaction: once mutation begins, per-item
// failures are recorded on the result and the pipeline continues; recovery is
// the explicit, caller-driven undo path, driven by the snapshot captured
// before the first write.
type finalizationService struct {
	paymentRepo   portsrepo.PaymentRepositoryFacade
	budgetRepo    portsrepo.BudgetRepositoryFacade
	bankRepo      portsrepo.BankRepositoryFacade
	masterLogRepo portsrepo.MasterLogRepositoryFacade
	activityRepo  portsrepo.ActivityWriter
	rateSvc       portssvc.RateSvcFacade
	undoSvc       portssvc.UndoSvcFacade
	taxCfg        TaxConfig
}

// NewFinalizationService creates the orchestrator behind finalizeBatch and
// undoBatch.
func NewFinalizationService(
	repos *portsrepo.RepositoryProvider,
	rateSvc portssvc.RateSvcFacade,
	undoSvc portssvc.UndoSvcFacade,
	taxCfg TaxConfig,
) portssvc.FinalizationSvcFacade {
	return &finalizationService{
		paymentRepo:   repos.PaymentRepo,
		budgetRepo:    repos.BudgetRepo,
		bankRepo:      repos.BankRepo,
		masterLogRepo: repos.MasterLogRepo,
		activityRepo:  repos.ActivityRepo,
		rateSvc:       rateSvc,
		undoSvc:       undoSvc,
		taxCfg:        taxCfg,
	}
}

var _ portssvc.FinalizationSvcFacade = (*finalizationService)(nil)

// runPayment carries one payment's per-batch working state through the
// pipeline steps.
type runPayment struct {
	payment    domain.StagedPayment
	bankID     string
	runAmount  decimal.Decimal // Amount this batch settles
	budgetName string          // Captured from the debit; empty when the debit skipped
	breakdown  taxmath.TaxBreakdown
	blocked    bool // Rate resolution failed; excluded from bank/status/log
	settled    bool
	paidAfter  decimal.Decimal
}

// resolveRunAmount applies the documented fallback order once, at the
// validation boundary: netPayable, then the pre-tax transaction amount.
func resolveRunAmount(p domain.StagedPayment) decimal.Decimal {
	if p.NetPayable.IsPositive() {
		return p.NetPayable
	}
	return p.PreTaxAmount
}

// FinalizeBatch converts a set of staged payments into committed financial
// state. Validation rejects the whole batch before any write; afterwards each
// step is best-effort per item and the result reports success, skip and
// failure per payment.
func (s *finalizationService) FinalizeBatch(ctx context.Context, req dto.FinalizeBatchRequest, userID string) (*dto.FinalizationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// --- VALIDATING: whole-batch, nothing written on failure ---
	paymentsMap, err := s.paymentRepo.FindPaymentsByIDs(ctx, req.PaymentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged payments: %w", err)
	}

	var problems []string
	runs := make([]*runPayment, 0, len(req.PaymentIDs))
	seenIDs := make(map[string]struct{}, len(req.PaymentIDs))
	for _, id := range req.PaymentIDs {
		// A payment listed twice would be debited twice but settled once;
		// duplicates fail the whole batch like any other validation problem.
		if _, dup := seenIDs[id]; dup {
			problems = append(problems, fmt.Sprintf("payment %s listed more than once", id))
			continue
		}
		seenIDs[id] = struct{}{}
		p, found := paymentsMap[id]
		if !found {
			problems = append(problems, fmt.Sprintf("payment %s not found", id))
			continue
		}
		if p.Vendor == "" {
			problems = append(problems, fmt.Sprintf("payment %s missing vendor", id))
		}
		if p.Description == "" {
			problems = append(problems, fmt.Sprintf("payment %s missing description", id))
		}
		if p.BudgetLineID == "" {
			problems = append(problems, fmt.Sprintf("payment %s missing budget line reference", id))
		}
		bankID, hasBank := req.PayingBankByPayment[id]
		if !hasBank || bankID == "" {
			problems = append(problems, fmt.Sprintf("payment %s missing paying bank", id))
		}
		runAmount := resolveRunAmount(p)
		if !runAmount.IsPositive() {
			problems = append(problems, fmt.Sprintf("payment %s has non-positive net payable", id))
		}
		if p.TotalAmount.IsPositive() {
			pct := taxmath.PaymentPercentage(runAmount, p.TotalAmount)
			if !pct.IsPositive() {
				problems = append(problems, fmt.Sprintf("payment %s has invalid payment percentage", id))
			}
		}
		runs = append(runs, &runPayment{payment: p, bankID: bankID, runAmount: runAmount})
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(problems, "; "))
	}

	batchID := uuid.NewString()
	result := &dto.FinalizationResult{BatchID: batchID, State: domain.StateValidating}

	// Idempotency guard: payments already settled in full drop out of every
	// subsequent step, so resubmitting a finalized sheet deducts nothing twice.
	eligible := make([]*runPayment, 0, len(runs))
	for _, r := range runs {
		if r.payment.PaymentStatus == domain.PaymentPaid {
			result.Skipped = append(result.Skipped, dto.SkippedItem{
				PaymentID: r.payment.PaymentID,
				Step:      string(domain.StateStatusUpdate),
				Reason:    "already processed",
			})
			continue
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		result.State = domain.StateCompleted
		logger.Info("Finalize batch: nothing eligible", slog.String("batch_id", batchID))
		return result, nil
	}

	// --- SNAPSHOTTING: pre-mutation capture; failure here aborts cleanly ---
	result.State = domain.StateSnapshotting
	amounts := make(map[string]decimal.Decimal, len(eligible))
	payments := make([]domain.StagedPayment, 0, len(eligible))
	for _, r := range eligible {
		amounts[r.payment.PaymentID] = r.runAmount
		payments = append(payments, r.payment)
		result.TotalAmount = result.TotalAmount.Add(r.runAmount)
	}
	if _, err := s.undoSvc.Capture(ctx, batchID, payments, amounts, userID); err != nil {
		result.State = domain.StateFailed
		return nil, fmt.Errorf("failed to capture undo snapshot: %w", err)
	}

	s.debitBudgets(ctx, batchID, userID, eligible, result)
	s.resolveTaxes(ctx, eligible, result)
	s.deductBanks(ctx, batchID, userID, eligible, result)
	s.updateStatuses(ctx, batchID, userID, eligible, result)
	s.appendMasterLog(ctx, batchID, userID, eligible, result)

	if err := s.undoSvc.Finalize(ctx, batchID, result.MasterLogIDs, userID); err != nil {
		logger.Error("Failed to finalize undo snapshot", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		result.Skipped = append(result.Skipped, dto.SkippedItem{Step: "SNAPSHOT_FINALIZE", Reason: err.Error()})
	}

	if len(result.Skipped) == 0 && len(result.BlockedPayments) == 0 {
		result.State = domain.StateCompleted
	} else {
		result.State = domain.StatePartiallyCompleted
	}

	s.dispatchActivity(ctx, portsrepo.ActivityRecord{
		Action:  "BATCH_FINALIZED",
		BatchID: batchID,
		Detail:  fmt.Sprintf("%d payments, total %s", len(eligible), result.TotalAmount.String()),
		UserID:  userID,
	})

	logger.Info("Batch finalized",
		slog.String("batch_id", batchID),
		slog.String("state", string(result.State)),
		slog.Int("budget_updated", result.BudgetUpdated),
		slog.Int("bank_deductions", result.BankDeductions),
		slog.Int("status_updated", result.StatusUpdated))
	return result, nil
}

// debitBudgets debits each payment's budget line by its USD impact. A missing
// line is skipped and recorded, never fatal to the batch.
func (s *finalizationService) debitBudgets(ctx context.Context, batchID string, userID string, runs []*runPayment, result *dto.FinalizationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result.State = domain.StateBudgetUpdate

	for _, r := range runs {
		impactUSD := taxmath.BudgetImpactUSD(r.runAmount, r.payment.CurrencyCode, r.payment.FXRate)
		delta, err := s.budgetRepo.DebitBudgetLine(ctx, r.payment.BudgetLineID, impactUSD, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Budget line not found; skipping debit",
					slog.String("budget_line_id", r.payment.BudgetLineID),
					slog.String("payment_id", r.payment.PaymentID))
			} else {
				logger.Error("Budget debit failed",
					slog.String("budget_line_id", r.payment.BudgetLineID),
					slog.String("error", err.Error()))
			}
			result.Skipped = append(result.Skipped, dto.SkippedItem{
				PaymentID: r.payment.PaymentID,
				Step:      string(domain.StateBudgetUpdate),
				Reason:    err.Error(),
			})
			continue
		}
		r.budgetName = delta.Name
		result.BudgetUpdated++
		if delta.NewBalance.IsNegative() {
			// Overdraft is warned about, never blocked.
			logger.Warn("Budget line overdrawn",
				slog.String("budget_line_id", r.payment.BudgetLineID),
				slog.String("new_balance", delta.NewBalance.String()))
			result.OverdraftWarning = append(result.OverdraftWarning,
				fmt.Sprintf("budget line %s overdrawn to %s", r.payment.BudgetLineID, delta.NewBalance.String()))
		}
	}
}

// resolveTaxes recomputes the tax breakdown for every payment so the master
// log carries authoritative figures. Rate resolution fails closed: a payment
// whose procurement type has no configured rate is blocked, not defaulted to
// zero tax.
func (s *finalizationService) resolveTaxes(ctx context.Context, runs []*runPayment, result *dto.FinalizationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result.State = domain.StateTaxResolution

	for _, r := range runs {
		whtRate, err := s.rateSvc.ResolveRate(ctx, r.payment.ProcurementType)
		if err != nil {
			logger.Warn("Payment blocked: WHT rate unresolved",
				slog.String("payment_id", r.payment.PaymentID),
				slog.String("procurement_type", r.payment.ProcurementType),
				slog.String("error", err.Error()))
			r.blocked = true
			result.BlockedPayments = append(result.BlockedPayments, dto.SkippedItem{
				PaymentID: r.payment.PaymentID,
				Step:      string(domain.StateTaxResolution),
				Reason:    err.Error(),
			})
			continue
		}

		in := taxmath.TaxInput{
			PreTax:       r.payment.PreTaxAmount,
			WhtRate:      whtRate,
			LevyRate:     s.taxCfg.LevyRate,
			VATRate:      s.taxCfg.VATRate,
			MomoRate:     s.taxCfg.MomoRate,
			VATApplies:   r.payment.VATApplies,
			PaymentMode:  r.payment.PaymentMode,
			CurrencyCode: r.payment.CurrencyCode,
			FXRate:       r.payment.FXRate,
		}
		pct := taxmath.PaymentPercentage(r.runAmount, r.payment.TotalAmount)
		r.breakdown = taxmath.ComputePartialBreakdown(in, pct)
	}
}

// deductBanks groups payments by paying bank and performs one atomic debit
// per bank, carrying aggregated vendor names and descriptions as ledger
// metadata. One entry per bank keeps the ledger compact and the balance
// consistent under concurrent batches touching different banks.
func (s *finalizationService) deductBanks(ctx context.Context, batchID string, userID string, runs []*runPayment, result *dto.FinalizationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result.State = domain.StateBankDeduction

	type bankGroup struct {
		total    decimal.Decimal
		vendors  []string
		details  []string
		category string
		members  []*runPayment
	}
	groups := make(map[string]*bankGroup)
	order := make([]string, 0)
	for _, r := range runs {
		if r.blocked {
			continue
		}
		g, ok := groups[r.bankID]
		if !ok {
			g = &bankGroup{total: decimal.Zero}
			groups[r.bankID] = g
			order = append(order, r.bankID)
		}
		g.total = g.total.Add(r.runAmount)
		g.vendors = append(g.vendors, r.payment.Vendor)
		g.details = append(g.details, r.payment.Description)
		if g.category == "" {
			// First collected category wins for the whole group; mixed-category
			// batches keep the first one (known product-level ambiguity).
			g.category = r.payment.CashFlowCategory
		}
		g.members = append(g.members, r)
	}

	for _, bankID := range order {
		g := groups[bankID]
		category := g.category
		if category == "" {
			category = defaultCashFlowCategory
		}
		movement := portsrepo.BankMovement{
			BankID:      bankID,
			Amount:      g.total,
			Direction:   domain.LedgerDebit,
			Category:    category,
			Description: fmt.Sprintf("Batch payment to %s: %s", strings.Join(g.vendors, ", "), strings.Join(g.details, "; ")),
			BatchID:     batchID,
			UserID:      userID,
		}
		delta, err := s.bankRepo.ApplyMovement(ctx, movement)
		if err != nil {
			logger.Error("Bank deduction failed", slog.String("bank_id", bankID), slog.String("error", err.Error()))
			for _, r := range g.members {
				result.Skipped = append(result.Skipped, dto.SkippedItem{
					PaymentID: r.payment.PaymentID,
					Step:      string(domain.StateBankDeduction),
					Reason:    err.Error(),
				})
			}
			continue
		}
		result.BankDeductions++
		if delta.NewBalance.IsNegative() {
			logger.Warn("Bank account overdrawn",
				slog.String("bank_id", bankID),
				slog.String("new_balance", delta.NewBalance.String()))
			result.OverdraftWarning = append(result.OverdraftWarning,
				fmt.Sprintf("bank %s overdrawn to %s", bankID, delta.NewBalance.String()))
		}
	}
}

// updateStatuses advances each payment's cumulative paid amount and status.
// The repository enforces the idempotency guard a second time inside its
// atomic read-modify-write; a guard hit is a silent skip.
func (s *finalizationService) updateStatuses(ctx context.Context, batchID string, userID string, runs []*runPayment, result *dto.FinalizationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result.State = domain.StateStatusUpdate

	for _, r := range runs {
		if r.blocked {
			continue
		}
		updated, err := s.paymentRepo.ApplySettlement(ctx, r.payment.PaymentID, r.runAmount, batchID, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrAlreadyProcessed) {
				result.Skipped = append(result.Skipped, dto.SkippedItem{
					PaymentID: r.payment.PaymentID,
					Step:      string(domain.StateStatusUpdate),
					Reason:    "already processed",
				})
				continue
			}
			logger.Error("Payment status update failed",
				slog.String("payment_id", r.payment.PaymentID),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, dto.SkippedItem{
				PaymentID: r.payment.PaymentID,
				Step:      string(domain.StateStatusUpdate),
				Reason:    err.Error(),
			})
			continue
		}
		r.settled = true
		r.paidAfter = updated.PaidAmount
		result.StatusUpdated++
	}
}

// appendMasterLog writes one immutable audit entry per settled payment with
// the full tax and percentage breakdown.
func (s *finalizationService) appendMasterLog(ctx context.Context, batchID string, userID string, runs []*runPayment, result *dto.FinalizationResult) {
	logger := middleware.GetLoggerFromCtx(ctx)
	result.State = domain.StateAuditLog

	for _, r := range runs {
		if r.blocked || !r.settled {
			continue
		}
		entry := domain.MasterLogEntry{
			BatchID:         batchID,
			PaymentID:       r.payment.PaymentID,
			SheetID:         r.payment.SheetID,
			Vendor:          r.payment.Vendor,
			Description:     r.payment.Description,
			BudgetLineID:    r.payment.BudgetLineID,
			BudgetLineName:  r.budgetName,
			BankID:          r.bankID,
			ProcurementType: r.payment.ProcurementType,
			CurrencyCode:    r.payment.CurrencyCode,
			FXRate:          r.payment.FXRate,
			PreTaxAmount:    r.breakdown.PreTax,
			WHTAmount:       r.breakdown.WHT,
			LevyAmount:      r.breakdown.Levy,
			VATAmount:       r.breakdown.VAT,
			MomoCharge:      r.breakdown.MomoCharge,
			NetPayable:      r.breakdown.NetPayable,
			BudgetImpactUSD: r.breakdown.BudgetImpactUSD,
			PercentOfTotal:  r.breakdown.Percentage,
			CumulativePaid:  r.paidAfter,
			IsPartial:       r.breakdown.IsPartial,
			CreatedAt:       time.Now().UTC(),
			CreatedByUserID: userID,
		}
		txnID, err := s.masterLogRepo.AppendEntry(ctx, entry)
		if err != nil {
			logger.Error("Master-log append failed",
				slog.String("payment_id", r.payment.PaymentID),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, dto.SkippedItem{
				PaymentID: r.payment.PaymentID,
				Step:      string(domain.StateAuditLog),
				Reason:    err.Error(),
			})
			continue
		}
		result.MasterLogIDs = append(result.MasterLogIDs, txnID)
	}
}

// UndoBatch best-effort reverses a finalized batch by replaying its captured
// snapshot. Fails with ErrUndoUnavailable when no completed, not-yet-undone
// snapshot exists; no mutation is attempted in that case.
func (s *finalizationService) UndoBatch(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error) {
	result, err := s.undoSvc.Compensate(ctx, batchID, userID)
	if err != nil {
		return nil, err
	}

	s.dispatchActivity(ctx, portsrepo.ActivityRecord{
		Action:  "BATCH_UNDONE",
		BatchID: batchID,
		Detail:  fmt.Sprintf("budget lines restored: %d, payments reverted: %d", result.BudgetLinesRestored, result.PaymentsReverted),
		UserID:  userID,
	})
	return result, nil
}

// GetRecentUndoableBatches lists the most recent undoable snapshots.
func (s *finalizationService) GetRecentUndoableBatches(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	return s.undoSvc.ListRecent(ctx, limit)
}

// GetBatchLog retrieves the master-log entries written for a batch.
func (s *finalizationService) GetBatchLog(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error) {
	entries, err := s.masterLogRepo.FindEntriesByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load master log for batch %s: %w", batchID, err)
	}
	return entries, nil
}

// dispatchActivity appends an activity record without blocking the caller's
// result path. It runs on its own goroutine with a detached deadline so a slow
// activity table never delays a finalize or undo response; failures are logged
// and dropped.
func (s *finalizationService) dispatchActivity(ctx context.Context, record portsrepo.ActivityRecord) {
	logger := middleware.GetLoggerFromCtx(ctx)
	record.CreatedAt = time.Now().UTC()

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.activityRepo.AppendActivity(writeCtx, record); err != nil {
			logger.Warn("Activity write failed",
				slog.String("action", record.Action),
				slog.String("batch_id", record.BatchID),
				slog.String("error", err.Error()))
		}
	}()
}

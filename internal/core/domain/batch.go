package domain

import "github.com/shopspring/decimal"

// FinalizationState tracks how far a batch progressed through the pipeline.
type FinalizationState string

const (
	StateValidating         FinalizationState = "VALIDATING"
	StateSnapshotting       FinalizationState = "SNAPSHOTTING"
	StateBudgetUpdate       FinalizationState = "BUDGET_UPDATE"
	StateTaxResolution      FinalizationState = "TAX_RESOLUTION"
	StateBankDeduction      FinalizationState = "BANK_DEDUCTION"
	StateStatusUpdate       FinalizationState = "STATUS_UPDATE"
	StateAuditLog           FinalizationState = "AUDIT_LOG"
	StateCompleted          FinalizationState = "COMPLETED"
	StateFailed             FinalizationState = "FAILED"
	StatePartiallyCompleted FinalizationState = "PARTIALLY_COMPLETED"
)

// Batch groups the staged payments finalized together as one unit of work.
// Immutable once created; progress is recorded on the finalization result and
// the undo snapshot, never back onto the batch itself.
type Batch struct {
	BatchID     string          `json:"batchID"` // Generated at finalize time (UUID)
	PaymentIDs  []string        `json:"paymentIDs"`
	TotalAmount decimal.Decimal `json:"totalAmount"` // Sum of net payables
	SheetID     string          `json:"sheetID"`
	AuditFields
}

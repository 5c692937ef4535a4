package dto

import (
	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// FinalizeBatchRequest is the payload submitted by the staging surface to
// commit a set of staged payments as one batch.
type FinalizeBatchRequest struct {
	PaymentIDs []string `json:"paymentIDs" binding:"required,min=1,dive,required"`
	// PayingBankByPayment maps each payment ID to the bank account it is paid
	// from. Payments missing from the map are rejected at validation.
	PayingBankByPayment map[string]string `json:"payingBankByPayment" binding:"required"`
	SheetID             string            `json:"sheetID" binding:"required"`
}

// SkippedItem records one payment-level skip or failure inside an otherwise
// continuing batch, with the pipeline step that produced it.
type SkippedItem struct {
	PaymentID string `json:"paymentID"`
	Step      string `json:"step"`
	Reason    string `json:"reason"`
}

// FinalizationResult is the structured per-batch report returned by
// FinalizeBatch. It always distinguishes success, skip and failure per item;
// a partial batch is reported, never silently dropped.
type FinalizationResult struct {
	BatchID          string                   `json:"batchID"`
	State            domain.FinalizationState `json:"state"`
	TotalAmount      decimal.Decimal          `json:"totalAmount"`
	BudgetUpdated    int                      `json:"budgetUpdated"`
	BankDeductions   int                      `json:"bankDeductions"`
	StatusUpdated    int                      `json:"statusUpdated"`
	MasterLogIDs     []string                 `json:"masterLogIDs"`
	Skipped          []SkippedItem            `json:"skipped,omitempty"`
	BlockedPayments  []SkippedItem            `json:"blockedPayments,omitempty"`
	OverdraftWarning []string                 `json:"overdraftWarning,omitempty"`
}

// UndoableBatchResponse summarizes one undoable snapshot for listing.
type UndoableBatchResponse struct {
	BatchID       string          `json:"batchID"`
	PrimaryVendor string          `json:"primaryVendor"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentCount  int             `json:"paymentCount"`
	CreatedAt     string          `json:"createdAt"`
	CanUndo       bool            `json:"canUndo"`
}

// ToUndoableBatchResponse converts a snapshot to its listing representation.
func ToUndoableBatchResponse(s *domain.UndoSnapshot) UndoableBatchResponse {
	return UndoableBatchResponse{
		BatchID:       s.BatchID,
		PrimaryVendor: s.PrimaryVendor,
		TotalAmount:   s.TotalAmount,
		PaymentCount:  len(s.Payments),
		CreatedAt:     s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		CanUndo:       s.CanUndo && !s.IsUndone,
	}
}

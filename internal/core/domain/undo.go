package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UndoSnapshotStatus tracks the lifecycle of a captured snapshot.
type UndoSnapshotStatus string

const (
	SnapshotCapturing UndoSnapshotStatus = "CAPTURING"
	SnapshotCompleted UndoSnapshotStatus = "COMPLETED"
)

// BudgetLineSnapshot records one budget line's balance and spend as they were
// immediately before the batch mutated anything.
type BudgetLineSnapshot struct {
	BudgetLineID string          `json:"budgetLineID"`
	Name         string          `json:"name"`
	Balance      decimal.Decimal `json:"balance"`
	Spend        decimal.Decimal `json:"spend"`
}

// PaymentSnapshot records one payment's settlement state before the batch,
// plus the amount this batch contributed, so undo can subtract exactly that.
type PaymentSnapshot struct {
	PaymentID     string          `json:"paymentID"`
	PaidAmount    decimal.Decimal `json:"paidAmount"` // Pre-finalize cumulative
	BatchAmount   decimal.Decimal `json:"batchAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
}

// UndoSnapshot is the pre-mutation state captured for a batch. Written once
// before any mutation, updated once after finalize completes to attach the
// master-log IDs, then read-only apart from the IsUndone flip.
type UndoSnapshot struct {
	BatchID       string               `json:"batchID"`
	PrimaryVendor string               `json:"primaryVendor"`
	TotalAmount   decimal.Decimal      `json:"totalAmount"`
	BudgetLines   []BudgetLineSnapshot `json:"budgetLines"`
	Payments      []PaymentSnapshot    `json:"payments"`
	MasterLogIDs  []string             `json:"masterLogIDs"`
	Status        UndoSnapshotStatus   `json:"status"`
	CanUndo       bool                 `json:"canUndo"`
	IsUndone      bool                 `json:"isUndone"`
	UndoneAt      *time.Time           `json:"undoneAt,omitempty"`
	UndoneBy      string               `json:"undoneBy,omitempty"`
	AuditFields
}

// CompensationResult reports the best-effort outcome of undoing one batch.
// Each step is attempted independently; failures are recorded, not fatal.
type CompensationResult struct {
	BatchID             string   `json:"batchID"`
	BudgetLinesRestored int      `json:"budgetLinesRestored"`
	MasterLogRemoved    int      `json:"masterLogRemoved"`
	BankEntriesReversed int      `json:"bankEntriesReversed"`
	PaymentsReverted    int      `json:"paymentsReverted"`
	Failures            []string `json:"failures,omitempty"`
	FullyCompensated    bool     `json:"fullyCompensated"`
}

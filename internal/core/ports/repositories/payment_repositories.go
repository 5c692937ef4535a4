package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// PaymentReader defines read operations for staged payments.
type PaymentReader interface {
	// FindPaymentByID retrieves a single staged payment.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.StagedPayment, error)

	// FindPaymentsByIDs retrieves multiple staged payments keyed by ID.
	FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.StagedPayment, error)
}

// PaymentWriter defines the settlement-state mutations owned by the
// finalization engine. The engine never deletes payments.
type PaymentWriter interface {
	// ApplySettlement atomically advances a payment's cumulative paid amount,
	// status, and payment reference in one read-modify-write. It fails with
	// apperrors.ErrAlreadyProcessed when the payment is already PAID or
	// already carries batchID as its payment reference.
	ApplySettlement(ctx context.Context, paymentID string, amountThisRun decimal.Decimal, batchID string, userID string) (*domain.StagedPayment, error)

	// OverwriteSettlement unconditionally sets a payment's paid amount and
	// status, clearing the payment reference when it matches batchID.
	// Compensation only.
	OverwriteSettlement(ctx context.Context, paymentID string, paidAmount decimal.Decimal, status domain.PaymentStatus, batchID string, userID string) error
}

// PaymentRepositoryFacade combines all staged-payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

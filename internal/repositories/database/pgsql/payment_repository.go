package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for staged payments.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `
	payment_id, vendor, description, budget_line_id, procurement_type, tax_type,
	vat_applies, payment_mode, cash_flow_category, currency_code, fx_rate,
	pre_tax_amount, wht_amount, levy_amount, vat_amount, momo_charge, net_payable,
	paid_amount, total_amount, payment_status, payment_reference, sheet_id,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (domain.StagedPayment, error) {
	var p domain.StagedPayment
	err := row.Scan(
		&p.PaymentID,
		&p.Vendor,
		&p.Description,
		&p.BudgetLineID,
		&p.ProcurementType,
		&p.TaxType,
		&p.VATApplies,
		&p.PaymentMode,
		&p.CashFlowCategory,
		&p.CurrencyCode,
		&p.FXRate,
		&p.PreTaxAmount,
		&p.WHTAmount,
		&p.LevyAmount,
		&p.VATAmount,
		&p.MomoCharge,
		&p.NetPayable,
		&p.PaidAmount,
		&p.TotalAmount,
		&p.PaymentStatus,
		&p.PaymentReference,
		&p.SheetID,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

// FindPaymentByID retrieves a single staged payment.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.StagedPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM staged_payments WHERE payment_id = $1;`

	p, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %s: %w", paymentID, err)
	}
	return &p, nil
}

// FindPaymentsByIDs retrieves multiple staged payments keyed by ID. Missing
// IDs are simply absent from the result map.
func (r *PgxPaymentRepository) FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.StagedPayment, error) {
	if len(paymentIDs) == 0 {
		return map[string]domain.StagedPayment{}, nil
	}

	query := `SELECT ` + paymentColumns + ` FROM staged_payments WHERE payment_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, paymentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make(map[string]domain.StagedPayment, len(paymentIDs))
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments[p.PaymentID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment rows: %w", err)
	}
	return payments, nil
}

// ApplySettlement atomically advances a payment's cumulative paid amount,
// status, and payment reference. The row lock makes the read-modify-write
// safe under concurrent batches; the guard inside the transaction makes the
// operation idempotent per batch.
func (r *PgxPaymentRepository) ApplySettlement(ctx context.Context, paymentID string, amountThisRun decimal.Decimal, batchID string, userID string) (*domain.StagedPayment, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `
		SELECT paid_amount, total_amount, payment_status, payment_reference
		FROM staged_payments
		WHERE payment_id = $1
		FOR UPDATE;
	`
	var paid, total decimal.Decimal
	var status domain.PaymentStatus
	var reference string
	if err := tx.QueryRow(ctx, lockQuery, paymentID).Scan(&paid, &total, &status, &reference); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock payment %s: %w", paymentID, err)
	}

	if status == domain.PaymentPaid || reference == batchID {
		return nil, apperrors.ErrAlreadyProcessed
	}

	newPaid := paid.Add(amountThisRun)
	newStatus := domain.StatusForAmounts(newPaid, total)

	updateQuery := `
		UPDATE staged_payments
		SET paid_amount = $2, payment_status = $3, payment_reference = $4,
		    last_updated_at = $5, last_updated_by = $6
		WHERE payment_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, paymentID, newPaid, string(newStatus), batchID, time.Now().UTC(), userID); err != nil {
		return nil, fmt.Errorf("failed to apply settlement to payment %s: %w", paymentID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return r.FindPaymentByID(ctx, paymentID)
}

// OverwriteSettlement unconditionally sets a payment's paid amount and
// status, clearing the payment reference when it matches batchID.
// Compensation only.
func (r *PgxPaymentRepository) OverwriteSettlement(ctx context.Context, paymentID string, paidAmount decimal.Decimal, status domain.PaymentStatus, batchID string, userID string) error {
	query := `
		UPDATE staged_payments
		SET paid_amount = $2, payment_status = $3,
		    payment_reference = CASE WHEN payment_reference = $4 THEN '' ELSE payment_reference END,
		    last_updated_at = $5, last_updated_by = $6
		WHERE payment_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, paymentID, paidAmount, string(status), batchID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to overwrite settlement for payment %s: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

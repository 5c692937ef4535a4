package pgsql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxMasterLogRepository struct {
	BaseRepository
}

// newPgxMasterLogRepository creates a new repository for the append-only
// master log.
func newPgxMasterLogRepository(pool *pgxpool.Pool) portsrepo.MasterLogRepositoryFacade {
	return &PgxMasterLogRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.MasterLogRepositoryFacade = (*PgxMasterLogRepository)(nil)

// AppendEntry writes one immutable entry and returns its transaction ID.
func (r *PgxMasterLogRepository) AppendEntry(ctx context.Context, entry domain.MasterLogEntry) (string, error) {
	if entry.TransactionID == "" {
		entry.TransactionID = uuid.NewString()
	}

	query := `
		INSERT INTO master_log (
			transaction_id, batch_id, payment_id, sheet_id, vendor, description,
			budget_line_id, budget_line_name, bank_id, procurement_type, currency_code, fx_rate,
			pre_tax_amount, wht_amount, levy_amount, vat_amount, momo_charge, net_payable,
			budget_impact_usd, percent_of_total, cumulative_paid, is_partial,
			created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);
	`
	_, err := r.Pool.Exec(ctx, query,
		entry.TransactionID,
		entry.BatchID,
		entry.PaymentID,
		entry.SheetID,
		entry.Vendor,
		entry.Description,
		entry.BudgetLineID,
		entry.BudgetLineName,
		entry.BankID,
		entry.ProcurementType,
		entry.CurrencyCode,
		entry.FXRate,
		entry.PreTaxAmount,
		entry.WHTAmount,
		entry.LevyAmount,
		entry.VATAmount,
		entry.MomoCharge,
		entry.NetPayable,
		entry.BudgetImpactUSD,
		entry.PercentOfTotal,
		entry.CumulativePaid,
		entry.IsPartial,
		entry.CreatedAt,
		entry.CreatedByUserID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to append master-log entry for payment %s: %w", entry.PaymentID, err)
	}
	return entry.TransactionID, nil
}

// RemoveByTransactionID deletes one entry. A missing ID returns ErrNotFound.
func (r *PgxMasterLogRepository) RemoveByTransactionID(ctx context.Context, transactionID string) error {
	query := `DELETE FROM master_log WHERE transaction_id = $1;`

	tag, err := r.Pool.Exec(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to remove master-log entry %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindEntriesByBatchID retrieves all master-log entries of a batch, oldest
// first.
func (r *PgxMasterLogRepository) FindEntriesByBatchID(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error) {
	query := `
		SELECT transaction_id, batch_id, payment_id, sheet_id, vendor, description,
		       budget_line_id, budget_line_name, bank_id, procurement_type, currency_code, fx_rate,
		       pre_tax_amount, wht_amount, levy_amount, vat_amount, momo_charge, net_payable,
		       budget_impact_usd, percent_of_total, cumulative_paid, is_partial,
		       created_at, created_by
		FROM master_log
		WHERE batch_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query master log for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	entries := []domain.MasterLogEntry{}
	for rows.Next() {
		var e domain.MasterLogEntry
		err := rows.Scan(
			&e.TransactionID,
			&e.BatchID,
			&e.PaymentID,
			&e.SheetID,
			&e.Vendor,
			&e.Description,
			&e.BudgetLineID,
			&e.BudgetLineName,
			&e.BankID,
			&e.ProcurementType,
			&e.CurrencyCode,
			&e.FXRate,
			&e.PreTaxAmount,
			&e.WHTAmount,
			&e.LevyAmount,
			&e.VATAmount,
			&e.MomoCharge,
			&e.NetPayable,
			&e.BudgetImpactUSD,
			&e.PercentOfTotal,
			&e.CumulativePaid,
			&e.IsPartial,
			&e.CreatedAt,
			&e.CreatedByUserID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan master-log row for batch %s: %w", batchID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate master-log rows for batch %s: %w", batchID, err)
	}
	return entries, nil
}

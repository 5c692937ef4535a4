package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

type PgxBankRepository struct {
	BaseRepository
}

// newPgxBankRepository creates a new repository for bank accounts and their
// ledger.
func newPgxBankRepository(pool *pgxpool.Pool) portsrepo.BankRepositoryFacade {
	return &PgxBankRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.BankRepositoryFacade = (*PgxBankRepository)(nil)

// FindBankAccountByID retrieves a bank account.
func (r *PgxBankRepository) FindBankAccountByID(ctx context.Context, bankID string) (*domain.BankAccount, error) {
	query := `
		SELECT bank_id, name, currency_code, balance, created_at, created_by, last_updated_at, last_updated_by
		FROM bank_accounts
		WHERE bank_id = $1;
	`
	var account domain.BankAccount
	err := r.Pool.QueryRow(ctx, query, bankID).Scan(
		&account.BankID,
		&account.Name,
		&account.CurrencyCode,
		&account.Balance,
		&account.CreatedAt,
		&account.CreatedBy,
		&account.LastUpdatedAt,
		&account.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bank account by ID %s: %w", bankID, err)
	}
	return &account, nil
}

// FindLedgerEntriesByBatchID retrieves all ledger entries written for a batch,
// oldest first.
func (r *PgxBankRepository) FindLedgerEntriesByBatchID(ctx context.Context, batchID string) ([]domain.BankLedgerEntry, error) {
	query := `
		SELECT entry_id, bank_id, amount, direction, category, description,
		       balance_before, balance_after, batch_id, is_reversed, created_at, created_by
		FROM bank_ledger
		WHERE batch_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	entries := []domain.BankLedgerEntry{}
	for rows.Next() {
		var e domain.BankLedgerEntry
		err := rows.Scan(
			&e.EntryID,
			&e.BankID,
			&e.Amount,
			&e.Direction,
			&e.Category,
			&e.Description,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.BatchID,
			&e.IsReversed,
			&e.CreatedAt,
			&e.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row for batch %s: %w", batchID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entry rows for batch %s: %w", batchID, err)
	}
	return entries, nil
}

// ApplyMovement locks the account row, updates the balance, and appends the
// ledger entry carrying balance-before/after, all in one transaction. The
// stored ledger amount is signed: negative for debits.
func (r *PgxBankRepository) ApplyMovement(ctx context.Context, movement portsrepo.BankMovement) (*domain.BankDelta, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT balance FROM bank_accounts WHERE bank_id = $1 FOR UPDATE;`
	var balance decimal.Decimal
	if err := tx.QueryRow(ctx, lockQuery, movement.BankID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock bank account %s: %w", movement.BankID, err)
	}

	signedAmount := movement.Amount
	if movement.Direction == domain.LedgerDebit {
		signedAmount = movement.Amount.Neg()
	}
	newBalance := balance.Add(signedAmount)
	now := time.Now().UTC()

	updateQuery := `
		UPDATE bank_accounts
		SET balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE bank_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, movement.BankID, newBalance, now, movement.UserID); err != nil {
		return nil, fmt.Errorf("failed to update bank balance for %s: %w", movement.BankID, err)
	}

	entryID := uuid.NewString()
	insertQuery := `
		INSERT INTO bank_ledger (
			entry_id, bank_id, amount, direction, category, description,
			balance_before, balance_after, batch_id, is_reversed, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $11);
	`
	_, err = tx.Exec(ctx, insertQuery,
		entryID,
		movement.BankID,
		signedAmount,
		string(movement.Direction),
		movement.Category,
		movement.Description,
		balance,
		newBalance,
		movement.BatchID,
		now,
		movement.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry for bank %s: %w", movement.BankID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &domain.BankDelta{
		BankID:          movement.BankID,
		EntryID:         entryID,
		PreviousBalance: balance,
		NewBalance:      newBalance,
	}, nil
}

// FlagEntriesReversed marks every ledger entry of a batch as reversed and
// returns the number flagged.
func (r *PgxBankRepository) FlagEntriesReversed(ctx context.Context, batchID string, userID string) (int, error) {
	query := `
		UPDATE bank_ledger
		SET is_reversed = true
		WHERE batch_id = $1 AND is_reversed = false;
	`
	tag, err := r.Pool.Exec(ctx, query, batchID)
	if err != nil {
		return 0, fmt.Errorf("failed to flag ledger entries reversed for batch %s: %w", batchID, err)
	}
	return int(tag.RowsAffected()), nil
}

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

type PgxBudgetRepository struct {
	BaseRepository
}

// newPgxBudgetRepository creates a new repository for budget-line data.
func newPgxBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetRepositoryFacade {
	return &PgxBudgetRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.BudgetRepositoryFacade = (*PgxBudgetRepository)(nil)

const budgetLineColumns = `budget_line_id, name, allocated, spend, balance, created_at, created_by, last_updated_at, last_updated_by`

func scanBudgetLine(row pgx.Row) (domain.BudgetLine, error) {
	var line domain.BudgetLine
	err := row.Scan(
		&line.BudgetLineID,
		&line.Name,
		&line.Allocated,
		&line.Spend,
		&line.Balance,
		&line.CreatedAt,
		&line.CreatedBy,
		&line.LastUpdatedAt,
		&line.LastUpdatedBy,
	)
	return line, err
}

// FindBudgetLineByID retrieves a single budget line.
func (r *PgxBudgetRepository) FindBudgetLineByID(ctx context.Context, budgetLineID string) (*domain.BudgetLine, error) {
	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE budget_line_id = $1;`

	line, err := scanBudgetLine(r.Pool.QueryRow(ctx, query, budgetLineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find budget line by ID %s: %w", budgetLineID, err)
	}
	return &line, nil
}

// FindBudgetLinesByIDs retrieves multiple budget lines keyed by ID. Missing
// IDs are simply absent from the result map.
func (r *PgxBudgetRepository) FindBudgetLinesByIDs(ctx context.Context, budgetLineIDs []string) (map[string]domain.BudgetLine, error) {
	if len(budgetLineIDs) == 0 {
		return map[string]domain.BudgetLine{}, nil
	}

	query := `SELECT ` + budgetLineColumns + ` FROM budget_lines WHERE budget_line_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, budgetLineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string]domain.BudgetLine, len(budgetLineIDs))
	for rows.Next() {
		line, err := scanBudgetLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget line row: %w", err)
		}
		lines[line.BudgetLineID] = line
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget line rows: %w", err)
	}
	return lines, nil
}

// DebitBudgetLine locks the line row, applies the USD debit to balance and
// spend, and writes both back in one transaction. Overdraft is not blocked
// here; the caller inspects the returned delta.
func (r *PgxBudgetRepository) DebitBudgetLine(ctx context.Context, budgetLineID string, amountUSD decimal.Decimal, userID string) (*domain.BudgetDelta, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	lockQuery := `SELECT name, balance, spend FROM budget_lines WHERE budget_line_id = $1 FOR UPDATE;`
	var name string
	var balance, spend decimal.Decimal
	if err := tx.QueryRow(ctx, lockQuery, budgetLineID).Scan(&name, &balance, &spend); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock budget line %s: %w", budgetLineID, err)
	}

	newBalance := balance.Sub(amountUSD)
	newSpend := spend.Add(amountUSD)

	updateQuery := `
		UPDATE budget_lines
		SET balance = $2, spend = $3, last_updated_at = $4, last_updated_by = $5
		WHERE budget_line_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery, budgetLineID, newBalance, newSpend, time.Now().UTC(), userID); err != nil {
		return nil, fmt.Errorf("failed to debit budget line %s: %w", budgetLineID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &domain.BudgetDelta{
		BudgetLineID:    budgetLineID,
		Name:            name,
		PreviousBalance: balance,
		NewBalance:      newBalance,
		PreviousSpend:   spend,
		NewSpend:        newSpend,
	}, nil
}

// RestoreBudgetLine unconditionally overwrites balance and spend with the
// captured pre-batch values. Compensation only.
func (r *PgxBudgetRepository) RestoreBudgetLine(ctx context.Context, budgetLineID string, balance, spend decimal.Decimal, userID string) error {
	query := `
		UPDATE budget_lines
		SET balance = $2, spend = $3, last_updated_at = $4, last_updated_by = $5
		WHERE budget_line_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, budgetLineID, balance, spend, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to restore budget line %s: %w", budgetLineID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// BudgetReader defines read operations for budget-line data.
type BudgetReader interface {
	// FindBudgetLineByID retrieves a single budget line.
	FindBudgetLineByID(ctx context.Context, budgetLineID string) (*domain.BudgetLine, error)

	// FindBudgetLinesByIDs retrieves multiple budget lines keyed by ID. Missing
	// IDs are simply absent from the map; the caller decides whether that is
	// an error.
	FindBudgetLinesByIDs(ctx context.Context, budgetLineIDs []string) (map[string]domain.BudgetLine, error)
}

// BudgetWriter defines the two mutations the finalization engine performs on
// budget lines.
type BudgetWriter interface {
	// DebitBudgetLine atomically reads the line's balance and spend, applies
	// the USD debit, and writes both back in one database transaction. No
	// non-negative floor is enforced; overdraft is the caller's to warn about.
	DebitBudgetLine(ctx context.Context, budgetLineID string, amountUSD decimal.Decimal, userID string) (*domain.BudgetDelta, error)

	// RestoreBudgetLine unconditionally overwrites balance and spend with the
	// captured pre-batch values. Compensation only; never a re-delta.
	RestoreBudgetLine(ctx context.Context, budgetLineID string, balance, spend decimal.Decimal, userID string) error
}

// BudgetRepositoryFacade combines all budget-line repository interfaces.
type BudgetRepositoryFacade interface {
	BudgetReader
	BudgetWriter
}

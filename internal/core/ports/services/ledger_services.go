package services

import (
	"context"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// LedgerSvcFacade exposes the read-side views of the budget and bank ledgers.
type LedgerSvcFacade interface {
	// GetBudgetLine retrieves a budget line with its current balance and spend.
	GetBudgetLine(ctx context.Context, budgetLineID string) (*domain.BudgetLine, error)

	// GetBankAccount retrieves a bank account with its current balance.
	GetBankAccount(ctx context.Context, bankID string) (*domain.BankAccount, error)

	// GetBankLedger retrieves the ledger entries a batch wrote against banks,
	// oldest first.
	GetBankLedger(ctx context.Context, batchID string) ([]domain.BankLedgerEntry, error)
}

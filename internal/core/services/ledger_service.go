package services

import (
	"context"
	"fmt"

	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
)

// ledgerService serves the read-only ledger views. All mutation goes through
// the finalization and undo services.
type ledgerService struct {
	budgetRepo portsrepo.BudgetRepositoryFacade
	bankRepo   portsrepo.BankRepositoryFacade
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(budgetRepo portsrepo.BudgetRepositoryFacade, bankRepo portsrepo.BankRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{
		budgetRepo: budgetRepo,
		bankRepo:   bankRepo,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetBudgetLine retrieves a budget line with its current balance and spend.
func (s *ledgerService) GetBudgetLine(ctx context.Context, budgetLineID string) (*domain.BudgetLine, error) {
	return s.budgetRepo.FindBudgetLineByID(ctx, budgetLineID)
}

// GetBankAccount retrieves a bank account with its current balance.
func (s *ledgerService) GetBankAccount(ctx context.Context, bankID string) (*domain.BankAccount, error) {
	return s.bankRepo.FindBankAccountByID(ctx, bankID)
}

// GetBankLedger retrieves the ledger entries a batch wrote, oldest first.
func (s *ledgerService) GetBankLedger(ctx context.Context, batchID string) ([]domain.BankLedgerEntry, error) {
	entries, err := s.bankRepo.FindLedgerEntriesByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank ledger for batch %s: %w", batchID, err)
	}
	return entries, nil
}

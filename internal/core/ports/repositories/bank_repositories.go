package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kasapahq/vendorpay/internal/core/domain"
)

// BankMovement describes one aggregated debit or credit against a bank
// account, carried into the immutable ledger entry written alongside it.
type BankMovement struct {
	BankID      string
	Amount      decimal.Decimal // Positive magnitude; direction gives the sign
	Direction   domain.LedgerDirection
	Category    string
	Description string
	BatchID     string
	UserID      string
}

// BankReader defines read operations for bank accounts and their ledger.
type BankReader interface {
	// FindBankAccountByID retrieves a bank account.
	FindBankAccountByID(ctx context.Context, bankID string) (*domain.BankAccount, error)

	// FindLedgerEntriesByBatchID retrieves all ledger entries written for a batch.
	FindLedgerEntriesByBatchID(ctx context.Context, batchID string) ([]domain.BankLedgerEntry, error)
}

// BankWriter defines the atomic bank mutations. Balance update and ledger
// append happen in the same database transaction; the ledger row is never
// mutated afterwards except for its reversal flag.
type BankWriter interface {
	// ApplyMovement locks the account row, updates the balance, and appends
	// the ledger entry carrying balance-before/after, all in one transaction.
	ApplyMovement(ctx context.Context, movement BankMovement) (*domain.BankDelta, error)

	// FlagEntriesReversed marks every ledger entry of a batch as reversed.
	// Returns the number of entries flagged.
	FlagEntriesReversed(ctx context.Context, batchID string, userID string) (int, error)
}

// BankRepositoryFacade combines all bank repository interfaces.
type BankRepositoryFacade interface {
	BankReader
	BankWriter
}

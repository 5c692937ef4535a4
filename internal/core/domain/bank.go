package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankAccount is a paying account with a running balance. Mutated only
// through the bank ledger's atomic debit/credit operations.
type BankAccount struct {
	BankID       string          `json:"bankID"` // Primary key (UUID)
	Name         string          `json:"name"`
	CurrencyCode string          `json:"currencyCode"`
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}

// LedgerDirection indicates whether a ledger entry moves money out of or into
// the bank account.
type LedgerDirection string

const (
	LedgerDebit  LedgerDirection = "DEBIT"
	LedgerCredit LedgerDirection = "CREDIT"
)

// BankLedgerEntry is an immutable history row written in the same atomic unit
// as the balance update it describes. Never mutated after creation except for
// the IsReversed flag flipped during undo.
type BankLedgerEntry struct {
	EntryID       string          `json:"entryID"` // Primary key (UUID)
	BankID        string          `json:"bankID"`
	Amount        decimal.Decimal `json:"amount"` // Signed: negative for debits
	Direction     LedgerDirection `json:"direction"`
	Category      string          `json:"category"` // Cash-flow category
	Description   string          `json:"description"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	BatchID       string          `json:"batchID"`
	IsReversed    bool            `json:"isReversed"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// BankDelta reports the balance movement produced by one atomic debit/credit
// together with the ledger entry appended alongside it.
type BankDelta struct {
	BankID          string          `json:"bankID"`
	EntryID         string          `json:"entryID"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
}
